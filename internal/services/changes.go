package services

import (
	"slices"
	"time"

	"dailymeow/internal/core"
)

// View names a client view that must re-fetch after a mutation.
type View string

const (
	ViewCalendar View = "calendar:refresh"
	ViewDaily    View = "daily:refresh"
	ViewRecap    View = "recap:refresh"
	ViewHistory  View = "history:refresh"
	ViewInsight  View = "insight:refresh"
)

// ChangeSet describes what a mutation touched. Callers use it to evict
// caches and tell clients exactly which views to re-fetch.
type ChangeSet struct {
	UserID string
	Months []string // YYYY-MM
	Days   []string // YYYY-MM-DD
	Views  []View
}

func newChangeSet(sess core.Session, dates []time.Time, views ...View) ChangeSet {
	cs := ChangeSet{UserID: sess.UserID, Views: slices.Clone(views)}
	loc := sess.Loc()
	for _, d := range dates {
		cs.Days = append(cs.Days, core.DateKey(d, loc))
		cs.Months = append(cs.Months, core.MonthKey(d, loc))
	}
	slices.Sort(cs.Days)
	cs.Days = slices.Compact(cs.Days)
	slices.Sort(cs.Months)
	cs.Months = slices.Compact(cs.Months)
	return cs
}

// Empty reports whether nothing changed.
func (c ChangeSet) Empty() bool {
	return len(c.Days) == 0 && len(c.Months) == 0
}

// Merge folds other into c.
func (c ChangeSet) Merge(other ChangeSet) ChangeSet {
	if c.UserID == "" {
		c.UserID = other.UserID
	}
	c.Days = append(c.Days, other.Days...)
	c.Months = append(c.Months, other.Months...)
	c.Views = append(c.Views, other.Views...)
	slices.Sort(c.Days)
	c.Days = slices.Compact(c.Days)
	slices.Sort(c.Months)
	c.Months = slices.Compact(c.Months)
	slices.Sort(c.Views)
	c.Views = slices.Compact(c.Views)
	return c
}

var (
	financeViews  = []View{ViewCalendar, ViewDaily, ViewRecap, ViewHistory, ViewInsight}
	activityViews = []View{ViewCalendar, ViewDaily, ViewRecap}
)
