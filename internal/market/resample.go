package market

import (
	"time"

	"github.com/hyperjump/astrali/internal/models"
)

// Aggregate is one resampled window: open first, high max, low min, close last, volume sum.
type Aggregate struct {
	Period models.PeriodKind
	// End is the last calendar day of the window (a Sunday for weekly, month end for monthly).
	End  time.Time
	Bar  Bar
	Days int
}

// Label is the human name of the window, e.g. "2024-01-07" or "January 2024".
func (a Aggregate) Label() string {
	if a.Period == models.PeriodMonthly {
		return a.End.Format("January 2006")
	}
	return a.End.Format("2006-01-02")
}

// Weekly groups bars into weeks ending on Sunday. A Sunday bar closes its own week.
func Weekly(bars []Bar) []Aggregate {
	return resample(bars, models.PeriodWeekly, weekEnd)
}

// Monthly groups bars by calendar month.
func Monthly(bars []Bar) []Aggregate {
	return resample(bars, models.PeriodMonthly, monthEnd)
}

func weekEnd(t time.Time) time.Time {
	d := dayOf(t)
	return d.AddDate(0, 0, (7-int(d.Weekday()))%7)
}

func monthEnd(t time.Time) time.Time {
	d := dayOf(t)
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// resample expects bars ascending by date. Windows without bars are not emitted.
func resample(bars []Bar, period models.PeriodKind, end func(time.Time) time.Time) []Aggregate {
	var out []Aggregate
	for _, b := range bars {
		e := end(b.Date)
		if n := len(out); n > 0 && out[n-1].End.Equal(e) {
			agg := &out[n-1]
			if b.High > agg.Bar.High {
				agg.Bar.High = b.High
			}
			if b.Low < agg.Bar.Low {
				agg.Bar.Low = b.Low
			}
			agg.Bar.Close = b.Close
			agg.Bar.Volume += b.Volume
			agg.Days++
			continue
		}
		first := b
		first.Date = e
		out = append(out, Aggregate{Period: period, End: e, Bar: first, Days: 1})
	}
	return out
}
