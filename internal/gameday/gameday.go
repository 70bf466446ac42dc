// Package gameday models calendar dates as the pipeline partitions them.
package gameday

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Date is a UTC calendar day.
type Date struct {
	t time.Time
}

// New truncates t to its UTC calendar day.
func New(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Of builds a date from its parts.
func Of(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Parse reads YYYY-MM-DD.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) String() string     { return d.t.Format(layout) }
func (d Date) Time() time.Time    { return d.t }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }

// Season returns the starting year of the season the date belongs to.
// October onwards belongs to the season starting that year.
func (d Date) Season() int {
	if d.t.Month() >= time.October {
		return d.t.Year()
	}
	return d.t.Year() - 1
}

// Range returns every date from start to end inclusive. Reversed bounds are swapped.
func Range(start, end Date) []Date {
	if end.Before(start) {
		start, end = end, start
	}

	var dates []Date
	for current := start; !current.After(end); current = current.AddDays(1) {
		dates = append(dates, current)
	}
	return dates
}

// SeasonWindow returns the regular-season-plus-playoffs window for a season start year.
func SeasonWindow(year int) (Date, Date) {
	return Of(year, time.October, 1), Of(year+1, time.June, 30)
}
