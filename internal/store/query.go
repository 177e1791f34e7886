package store

import (
	"sort"
	"time"

	"dailymeow/internal/core"
)

// Sort names an ordering. Backends map each value to a fixed clause, so no
// caller text ever reaches a query string.
type Sort string

const (
	SortNone        Sort = ""
	SortDateAsc     Sort = "date"
	SortDateDesc    Sort = "-date"
	SortTimeAsc     Sort = "time"
	SortCreatedDesc Sort = "-created"
)

// Query filters records of one owner. Zero values mean "no constraint",
// except UserID which is always required.
type Query struct {
	UserID string
	From   time.Time // inclusive
	To     time.Time // inclusive
	Type   core.FinanceType
	// Completed filters activities by completion state when set.
	Completed *bool
	Sort      Sort
	Limit     int
}

// ForDay returns a query bounded to one local calendar day.
func ForDay(userID string, day time.Time, loc *time.Location) Query {
	return Query{
		UserID: userID,
		From:   core.StartOfDay(day, loc),
		To:     core.EndOfDay(day, loc),
	}
}

// ForMonth returns a query bounded to one calendar month. month is 1-12.
func ForMonth(userID string, year, month int, loc *time.Location) (Query, error) {
	from, to, err := core.MonthBounds(year, month, loc)
	if err != nil {
		return Query{}, err
	}
	return Query{UserID: userID, From: from, To: to}, nil
}

func (q Query) inRange(t time.Time) bool {
	if !q.From.IsZero() && t.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && t.After(q.To) {
		return false
	}
	return true
}

// MatchActivity reports whether a satisfies q.
func (q Query) MatchActivity(a core.Activity) bool {
	if a.UserID != q.UserID || !q.inRange(a.Date) {
		return false
	}
	if q.Completed != nil && a.IsCompleted != *q.Completed {
		return false
	}
	return true
}

// MatchFinance reports whether f satisfies q.
func (q Query) MatchFinance(f core.Finance) bool {
	if f.UserID != q.UserID || !q.inRange(f.Date) {
		return false
	}
	if q.Type != "" && f.Type != q.Type {
		return false
	}
	return true
}

// SortActivities orders in place per s and truncates to limit.
func SortActivities(items []core.Activity, s Sort, limit int) []core.Activity {
	switch s {
	case SortDateAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	case SortDateDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	case SortTimeAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Time < items[j].Time })
	case SortCreatedDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Created.After(items[j].Created) })
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// SortFinances orders in place per s and truncates to limit.
func SortFinances(items []core.Finance, s Sort, limit int) []core.Finance {
	switch s {
	case SortDateAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	case SortDateDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	case SortCreatedDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Created.After(items[j].Created) })
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
