// Package market fetches daily price history and renders it as text summaries.
package market

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrNoData is returned when a source has no bars for the requested window.
var ErrNoData = errors.New("no price data")

// Bar is one trading day.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Series is the daily history of one ticker, ascending by date.
type Series struct {
	Ticker string
	Bars   []Bar
}

// Fetcher retrieves daily bars for ticker in [start, end].
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) (*Series, error)
}

// NormalizeTickers upper-cases and trims tickers, dropping blanks and duplicates but
// keeping first-seen order.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Window returns [now - months*30 days, now].
func Window(now time.Time, months int) (start, end time.Time) {
	return now.AddDate(0, 0, -30*months), now
}

// sortAndClip orders bars by date and keeps those within [start, end] by calendar day.
func sortAndClip(bars []Bar, start, end time.Time) []Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	from := dayOf(start)
	to := dayOf(end)
	out := bars[:0]
	for _, b := range bars {
		d := dayOf(b.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// dayOf returns the calendar date of t as midnight UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
