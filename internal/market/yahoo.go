package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultYahooBaseURL is the public chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// yahooUserAgent is sent because the chart API rejects requests without a browser-like agent.
const yahooUserAgent = "Mozilla/5.0 (compatible; astrali/1.0)"

// YahooFetcher reads daily bars from the Yahoo Finance chart API (v8).
type YahooFetcher struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewYahooFetcher returns a fetcher for baseURL (DefaultYahooBaseURL when empty).
func NewYahooFetcher(baseURL string, timeout time.Duration) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooFetcher{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Fetch implements Fetcher. Days with a null open or close are dropped.
func (f *YahooFetcher) Fetch(ctx context.Context, ticker string, start, end time.Time) (*Series, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() {
			return nil, fmt.Errorf("%s: chart API returned status %d: %s", ticker, resp.StatusCode, desc.String())
		}
		return nil, fmt.Errorf("%s: chart API returned status %d", ticker, resp.StatusCode)
	}

	bars, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	bars = sortAndClip(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	return &Series{Ticker: ticker, Bars: bars}, nil
}

// parseChart decodes a chart API payload into bars dated in the exchange's local day.
func parseChart(body []byte) ([]Bar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid chart response")
	}
	if e := gjson.GetBytes(body, "chart.error"); e.Exists() && e.Type != gjson.Null {
		return nil, fmt.Errorf("chart API error: %s", e.Get("description").String())
	}
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, ErrNoData
	}
	loc := time.FixedZone("exchange", int(result.Get("meta.gmtoffset").Int()))
	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	bars := make([]Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(opens) || i >= len(closes) || opens[i].Type == gjson.Null || closes[i].Type == gjson.Null {
			continue
		}
		b := Bar{
			Date:  dayOf(time.Unix(ts.Int(), 0).In(loc)),
			Open:  opens[i].Float(),
			Close: closes[i].Float(),
			High:  valueOr(highs, i, opens[i].Float()),
			Low:   valueOr(lows, i, opens[i].Float()),
		}
		if i < len(volumes) {
			b.Volume = volumes[i].Int()
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func valueOr(values []gjson.Result, i int, fallback float64) float64 {
	if i >= len(values) || values[i].Type == gjson.Null {
		return fallback
	}
	return values[i].Float()
}
