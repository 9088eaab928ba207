package market

import (
	"fmt"

	"github.com/hyperjump/astrali/internal/config"
)

// NewFetcherFromConfig builds the fetcher named by cfg.Source.
func NewFetcherFromConfig(cfg config.MarketConfig) (Fetcher, error) {
	switch cfg.Source {
	case "yahoo", "":
		return NewYahooFetcher(cfg.BaseURL, cfg.Timeout), nil
	case "csv":
		if cfg.CSVDir == "" {
			return nil, fmt.Errorf("market source csv requires csv_dir")
		}
		return NewCSVFetcher(cfg.CSVDir), nil
	default:
		return nil, fmt.Errorf("unknown market source %q", cfg.Source)
	}
}
