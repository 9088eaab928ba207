package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/astrali/internal/config"
	"github.com/hyperjump/astrali/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeTickers(t *testing.T) {
	got := NormalizeTickers([]string{" aapl", "MSFT", "", "AAPL", "msft ", "tsla"})
	want := []string{"AAPL", "MSFT", "TSLA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTickers() = %v, want %v", got, want)
	}
}

func TestWindow(t *testing.T) {
	now := day("2024-06-30")
	start, end := Window(now, 2)
	if !end.Equal(now) {
		t.Errorf("end = %v", end)
	}
	if want := day("2024-05-01"); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestWeekly_EndsOnSunday(t *testing.T) {
	bars := []Bar{
		{Date: day("2024-01-02"), Open: 185, High: 186, Low: 183.1, Close: 185.5, Volume: 1_000_000},
		{Date: day("2024-01-05"), Open: 186, High: 188.4, Low: 184, Close: 187.2, Volume: 234_567},
		{Date: day("2024-01-07"), Open: 187, High: 187, Low: 187, Close: 187, Volume: 0}, // Sunday closes its own week
		{Date: day("2024-01-08"), Open: 190, High: 191, Low: 189, Close: 190.5, Volume: 10},
	}
	weeks := Weekly(bars)
	if len(weeks) != 2 {
		t.Fatalf("got %d weeks, want 2", len(weeks))
	}
	if weeks[0].Label() != "2024-01-07" || weeks[1].Label() != "2024-01-14" {
		t.Errorf("labels = %s, %s", weeks[0].Label(), weeks[1].Label())
	}
	w := weeks[0].Bar
	if w.Open != 185 || w.High != 188.4 || w.Low != 183.1 || w.Close != 187 || w.Volume != 1_234_567 {
		t.Errorf("week aggregate = %+v", w)
	}
	if weeks[0].Days != 3 {
		t.Errorf("days = %d", weeks[0].Days)
	}
}

func TestMonthly(t *testing.T) {
	bars := []Bar{
		{Date: day("2024-01-02"), Open: 185, High: 186, Low: 180, Close: 186, Volume: 12_000_000},
		{Date: day("2024-01-31"), Open: 188, High: 192, Low: 187, Close: 190, Volume: 345_678},
		{Date: day("2024-02-01"), Open: 191, High: 192, Low: 190, Close: 191, Volume: 1},
	}
	months := Monthly(bars)
	if len(months) != 2 {
		t.Fatalf("got %d months, want 2", len(months))
	}
	if months[0].Label() != "January 2024" || months[1].Label() != "February 2024" {
		t.Errorf("labels = %s, %s", months[0].Label(), months[1].Label())
	}
	if !months[0].End.Equal(day("2024-01-31")) {
		t.Errorf("end = %v", months[0].End)
	}
}

func TestSummarize(t *testing.T) {
	weekly := Aggregate{Period: models.PeriodWeekly, End: day("2024-01-07"),
		Bar: Bar{Open: 185, High: 188.4, Low: 183.1, Close: 187.2, Volume: 1_234_567}}
	want := "AAPL week of 2024-01-07: Open $185.00, High $188.40, Low $183.10, Close $187.20, Volume 1,234,567"
	if got := Summarize("AAPL", weekly); got != want {
		t.Errorf("weekly:\n got %q\nwant %q", got, want)
	}

	monthly := Aggregate{Period: models.PeriodMonthly, End: day("2024-01-31"),
		Bar: Bar{Open: 185, Close: 190, Volume: 12_345_678}}
	want = "AAPL January 2024: $185.00→$190.00 (+2.70%), Volume 12,345,678"
	if got := Summarize("AAPL", monthly); got != want {
		t.Errorf("monthly:\n got %q\nwant %q", got, want)
	}

	down := Aggregate{Period: models.PeriodMonthly, End: day("2024-02-29"), Bar: Bar{Open: 200, Close: 190, Volume: 5}}
	if got := Summarize("TSLA", down); !strings.Contains(got, "(-5.00%)") {
		t.Errorf("negative change: %q", got)
	}
}

func TestSummarizeSeries_WeeklyThenMonthly(t *testing.T) {
	s := &Series{Ticker: "MSFT", Bars: []Bar{
		{Date: day("2024-01-02"), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Date: day("2024-01-09"), Open: 2, High: 2, Low: 2, Close: 2, Volume: 1},
	}}
	got := SummarizeSeries(s)
	if len(got) != 3 {
		t.Fatalf("got %d summaries, want 3", len(got))
	}
	periods := []models.PeriodKind{got[0].Period, got[1].Period, got[2].Period}
	want := []models.PeriodKind{models.PeriodWeekly, models.PeriodWeekly, models.PeriodMonthly}
	if !reflect.DeepEqual(periods, want) {
		t.Errorf("periods = %v", periods)
	}
	if SummarizeSeries(&Series{Ticker: "X"}) != nil {
		t.Error("empty series should have no summaries")
	}
}

const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"AAPL","gmtoffset":-18000},
"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{"open":[185.0,184.2,null],"high":[188.4,185.9,null],"low":[183.1,183.4,null],
"close":[185.6,184.3,null],"volume":[82488700,58414500,null]}]}}],"error":null}}`

func TestYahooFetcher(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %q", r.URL.Query().Get("interval"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, time.Second)
	s, err := f.Fetch(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/v8/finance/chart/AAPL" {
		t.Errorf("path = %s", gotPath)
	}
	if gotUA == "" {
		t.Error("missing user agent")
	}
	if len(s.Bars) != 2 {
		t.Fatalf("got %d bars, want 2 (null day dropped)", len(s.Bars))
	}
	if !s.Bars[0].Date.Equal(day("2024-01-02")) || s.Bars[0].Volume != 82488700 || s.Bars[1].Close != 184.3 {
		t.Errorf("bars = %+v", s.Bars)
	}
}

func TestYahooFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := NewYahooFetcher(srv.URL, time.Second).Fetch(context.Background(), "ZZZZ", day("2024-01-01"), day("2024-01-31"))
	if err == nil || !strings.Contains(err.Error(), "delisted") {
		t.Errorf("expected delisted error, got %v", err)
	}
}

func TestYahooFetcher_EmptyWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	_, err := NewYahooFetcher(srv.URL, time.Second).Fetch(context.Background(), "AAPL", day("2023-01-01"), day("2023-02-01"))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCSVFetcher(t *testing.T) {
	dir := t.TempDir()
	content := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2024-01-03,184.22,185.88,183.43,184.25,183.5,58414500\n" +
		"2024-01-02,187.15,188.44,183.89,185.64,184.9,82488700\n" +
		"2024-01-04,null,null,null,null,null,null\n" +
		"2023-12-01,190,191,189,190.5,190,1\n"
	if err := os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	f := NewCSVFetcher(dir)
	s, err := f.Fetch(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-31"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(s.Bars))
	}
	if !s.Bars[0].Date.Equal(day("2024-01-02")) {
		t.Errorf("bars not sorted: %v", s.Bars[0].Date)
	}
	if s.Bars[1].Volume != 58414500 || s.Bars[1].High != 185.88 {
		t.Errorf("bar = %+v", s.Bars[1])
	}

	if _, err := f.Fetch(context.Background(), "MSFT", day("2024-01-01"), day("2024-01-31")); !errors.Is(err, ErrNoData) {
		t.Errorf("missing file: expected ErrNoData, got %v", err)
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("Date,High\n2024-01-02,1\n")); err == nil {
		t.Error("expected error for missing open/close columns")
	}
}

func TestNewFetcherFromConfig(t *testing.T) {
	if f, err := NewFetcherFromConfig(config.MarketConfig{Source: "yahoo"}); err != nil {
		t.Fatal(err)
	} else if _, ok := f.(*YahooFetcher); !ok {
		t.Errorf("got %T", f)
	}
	if _, err := NewFetcherFromConfig(config.MarketConfig{Source: "csv"}); err == nil {
		t.Error("csv without dir should fail")
	}
	if _, err := NewFetcherFromConfig(config.MarketConfig{Source: "bloomberg"}); err == nil {
		t.Error("unknown source should fail")
	}
}
