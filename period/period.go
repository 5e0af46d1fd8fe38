// Package period provides billing-month calendar arithmetic.
//
// A Period is one calendar month in UTC, the granularity at which
// invoices are issued. Day counting is calendar based: timestamps are
// normalized to UTC before counting, so a wall-clock DST shift never
// changes how many days a window spans.
package period

import (
	"fmt"
	"time"
)

// Period identifies one calendar billing month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Of returns the period containing the given instant.
func Of(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// Current returns the period containing the current instant.
func Current() Period {
	return Of(time.Now())
}

// Start returns the first instant of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the period (23:59:59.999999999 of the
// last day).
func (p Period) End() time.Time {
	return p.Next().Start().Add(-time.Nanosecond)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return p.Next().Start().AddDate(0, 0, -1).Day()
}

// Next returns the following period.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Previous returns the preceding period.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Contains reports whether the instant falls within the period.
func (p Period) Contains(t time.Time) bool {
	return Of(t) == p
}

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// IsZero reports whether p is the zero value.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// String returns the period in "YYYY-MM" form.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// MonthStart returns the first instant of the month containing t.
func MonthStart(t time.Time) time.Time {
	return Of(t).Start()
}

// MonthEnd returns the last instant of the month containing t.
func MonthEnd(t time.Time) time.Time {
	return Of(t).End()
}

// FullDays returns the number of billing days in [start, end]. A partial
// trailing day counts as a full billing day, so a resource active for one
// hour still bills one day; start == end yields zero.
func FullDays(start, end time.Time) int {
	const secondsInDay = 24 * 60 * 60

	total := int64(end.UTC().Sub(start.UTC()).Seconds())
	if total <= 0 {
		return 0
	}

	days := total / secondsInDay
	if total%secondsInDay > 0 {
		days++
	}
	return int(days)
}

// FullHours returns the number of billing hours in [start, end] with the
// same ceiling semantics as FullDays.
func FullHours(start, end time.Time) int {
	const secondsInHour = 60 * 60

	total := int64(end.UTC().Sub(start.UTC()).Seconds())
	if total <= 0 {
		return 0
	}

	hours := total / secondsInHour
	if total%secondsInHour > 0 {
		hours++
	}
	return int(hours)
}
