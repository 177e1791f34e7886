package core

import (
	"fmt"
	"time"
)

// DateKeyLayout is the YYYY-MM-DD layout used for every date key.
const DateKeyLayout = "2006-01-02"

// DateKey returns the calendar day of t as observed in loc.
// Records are stored in UTC, so converting before formatting is what keeps
// a late-evening record on the day the user actually saw.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key as local midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if key == "" {
		return time.Time{}, ErrMissingDate
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMissingDate, key)
	}
	return t, nil
}

// StartOfDay returns local midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59 of t's day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
}

// AddDays moves t by n calendar days, keeping wall-clock time in loc.
// Adding 24h would drift by an hour across DST changes.
func AddDays(t time.Time, n int, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// DaysBetween counts calendar days from a to b as seen in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// MonthBounds returns the first instant and the last second of a month.
// month is 1-12.
func MonthBounds(year, month int, loc *time.Location) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	// day 0 of the next month is the last day of this one
	end := time.Date(year, time.Month(month)+1, 0, 23, 59, 59, 0, loc)
	return start, end, nil
}

// MonthKey identifies a calendar month, e.g. "2025-03".
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}
