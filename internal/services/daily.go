package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

type ItemKind string

const (
	KindActivity ItemKind = "activity"
	KindFinance  ItemKind = "finance"
)

const noNotes = "No notes"

// UnifiedDayItem is one row of the day view.
type UnifiedDayItem struct {
	ID       string     `json:"id"`
	Kind     ItemKind   `json:"type"`
	Time     string     `json:"time"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Color    core.Color `json:"color"`
	Amount   *int64     `json:"amount,omitempty"`
}

// DayView is the unified list of a day plus its finance totals.
type DayView struct {
	Date    string              `json:"date"`
	Items   []UnifiedDayItem    `json:"items"`
	Summary core.FinanceSummary `json:"summary"`
}

type DailyService struct {
	activities store.ActivityStore
	finances   store.FinanceStore
	events     *FinanceEvents
}

func NewDailyService(activities store.ActivityStore, finances store.FinanceStore, events *FinanceEvents) *DailyService {
	return &DailyService{activities: activities, finances: finances, events: events}
}

// Day loads the activities and finances of dayKey concurrently and merges
// them into one list ordered by time of day.
func (s *DailyService) Day(ctx context.Context, sess core.Session, dayKey string) (DayView, error) {
	if !sess.Valid() {
		return DayView{}, core.ErrNotAuthenticated
	}
	day, err := core.ParseDateKey(dayKey, sess.Loc())
	if err != nil {
		return DayView{}, err
	}
	q := store.ForDay(sess.UserID, day, sess.Loc())

	var (
		activities []core.Activity
		finances   []core.Finance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aq := q
		aq.Sort = store.SortTimeAsc
		var err error
		activities, err = s.activities.ListActivities(gctx, aq)
		return err
	})
	g.Go(func() error {
		fq := q
		fq.Sort = store.SortCreatedDesc
		var err error
		finances, err = s.finances.ListFinances(gctx, fq)
		return err
	})
	if err := g.Wait(); err != nil {
		return DayView{}, fmt.Errorf("load day %s: %w", dayKey, err)
	}

	return DayView{
		Date:    dayKey,
		Items:   Unify(activities, finances, sess.Loc()),
		Summary: core.Summarize(finances),
	}, nil
}

// Unify maps records to day items and stable-sorts them by HH:MM, so
// records sharing a time keep activity-then-finance input order.
func Unify(activities []core.Activity, finances []core.Finance, loc *time.Location) []UnifiedDayItem {
	items := make([]UnifiedDayItem, 0, len(activities)+len(finances))
	for _, a := range activities {
		subtitle := a.Notes
		if subtitle == "" {
			subtitle = noNotes
		}
		clock := a.Time
		if clock == "" {
			clock = core.DefaultTime
		}
		items = append(items, UnifiedDayItem{
			ID:       a.ID,
			Kind:     KindActivity,
			Time:     clock,
			Title:    a.Title,
			Subtitle: subtitle,
			Color:    a.DisplayColor(),
		})
	}
	for _, f := range finances {
		color := core.Debit
		if f.Type == core.Income {
			color = core.Credit
		}
		amount := f.Amount
		items = append(items, UnifiedDayItem{
			ID:       f.ID,
			Kind:     KindFinance,
			Time:     f.Date.In(loc).Format("15:04"),
			Title:    f.Title,
			Subtitle: core.SignedRupiah(f.Type, f.Amount),
			Color:    color,
			Amount:   &amount,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Time < items[j].Time })
	return items
}

// Delete removes one item of the day and returns the day re-read from the
// store, never a locally patched copy.
func (s *DailyService) Delete(ctx context.Context, sess core.Session, dayKey string, kind ItemKind, id string) (DayView, ChangeSet, error) {
	if !sess.Valid() {
		return DayView{}, ChangeSet{}, core.ErrNotAuthenticated
	}
	day, err := core.ParseDateKey(dayKey, sess.Loc())
	if err != nil {
		return DayView{}, ChangeSet{}, err
	}

	// The change set follows the stored date; an id from another day is not
	// part of this view and is reported as not found.
	var changes ChangeSet
	switch kind {
	case KindActivity:
		a, err := activityOnDay(ctx, s.activities, sess, day, id)
		if err != nil {
			return DayView{}, ChangeSet{}, err
		}
		if err := s.activities.DeleteActivity(ctx, sess.UserID, id); err != nil {
			return DayView{}, ChangeSet{}, fmt.Errorf("delete activity %s: %w", id, err)
		}
		changes = newChangeSet(sess, []time.Time{a.Date}, activityViews...)
	case KindFinance:
		f, err := financeOnDay(ctx, s.finances, sess, day, id)
		if err != nil {
			return DayView{}, ChangeSet{}, err
		}
		if err := s.finances.DeleteFinance(ctx, sess.UserID, id); err != nil {
			return DayView{}, ChangeSet{}, fmt.Errorf("delete finance %s: %w", id, err)
		}
		s.events.Deleted(ctx, sess.UserID, id)
		changes = newChangeSet(sess, []time.Time{f.Date}, financeViews...)
	default:
		return DayView{}, ChangeSet{}, fmt.Errorf("%w: unknown item kind %q", core.ErrInvalidType, kind)
	}

	view, err := s.Day(ctx, sess, dayKey)
	return view, changes, err
}
