package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CSVFetcher reads <Dir>/<TICKER>.csv files in the Yahoo "Download" layout:
// Date,Open,High,Low,Close,Adj Close,Volume. Rows with "null" prices are skipped.
type CSVFetcher struct {
	Dir string
}

// NewCSVFetcher returns a fetcher over dir.
func NewCSVFetcher(dir string) *CSVFetcher {
	return &CSVFetcher{Dir: dir}
}

// Fetch implements Fetcher.
func (f *CSVFetcher) Fetch(ctx context.Context, ticker string, start, end time.Time) (*Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(f.Dir, ticker+".csv")
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	bars, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	bars = sortAndClip(bars, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	return &Series{Ticker: ticker, Bars: bars}, nil
}

// ReadCSV parses a daily price table. Columns are located by header name, case-insensitive.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "open", "close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing %q column", name)
		}
	}

	var bars []Bar
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := time.Parse("2006-01-02", field(rec, col, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date: %w", line, err)
		}
		open, okOpen := parsePrice(field(rec, col, "open"))
		closePrice, okClose := parsePrice(field(rec, col, "close"))
		if !okOpen || !okClose {
			continue
		}
		b := Bar{Date: date, Open: open, Close: closePrice, High: open, Low: open}
		if v, ok := parsePrice(field(rec, col, "high")); ok {
			b.High = v
		}
		if v, ok := parsePrice(field(rec, col, "low")); ok {
			b.Low = v
		}
		if v, ok := parsePrice(field(rec, col, "volume")); ok {
			b.Volume = int64(v)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parsePrice(s string) (float64, bool) {
	if s == "" || strings.EqualFold(s, "null") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
