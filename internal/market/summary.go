package market

import (
	"fmt"

	"github.com/hyperjump/astrali/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var volumePrinter = message.NewPrinter(language.English)

// Summarize renders one window as a single sentence.
//
//	AAPL week of 2024-01-07: Open $185.00, High $188.40, Low $183.10, Close $187.20, Volume 1,234,567
//	AAPL January 2024: $185.00→$190.00 (+2.70%), Volume 12,345,678
func Summarize(ticker string, a Aggregate) string {
	b := a.Bar
	volume := volumePrinter.Sprintf("%d", b.Volume)
	if a.Period == models.PeriodMonthly {
		return fmt.Sprintf("%s %s: $%.2f→$%.2f (%+.2f%%), Volume %s",
			ticker, a.Label(), b.Open, b.Close, Change(b.Open, b.Close), volume)
	}
	return fmt.Sprintf("%s week of %s: Open $%.2f, High $%.2f, Low $%.2f, Close $%.2f, Volume %s",
		ticker, a.Label(), b.Open, b.High, b.Low, b.Close, volume)
}

// Change is the percentage move from open to close, 0 when open is 0.
func Change(open, close float64) float64 {
	if open == 0 {
		return 0
	}
	return (close - open) / open * 100
}

// Summary is one rendered window of a series.
type Summary struct {
	Period models.PeriodKind
	Label  string
	Text   string
}

// SummarizeSeries renders every weekly window and then every monthly window of s.
func SummarizeSeries(s *Series) []Summary {
	if s == nil || len(s.Bars) == 0 {
		return nil
	}
	weekly := Weekly(s.Bars)
	monthly := Monthly(s.Bars)
	out := make([]Summary, 0, len(weekly)+len(monthly))
	for _, group := range [][]Aggregate{weekly, monthly} {
		for _, a := range group {
			out = append(out, Summary{Period: a.Period, Label: a.Label(), Text: Summarize(s.Ticker, a)})
		}
	}
	return out
}
