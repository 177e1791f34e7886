package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

// markerActivityLimit bounds the activities scanned per month.
const markerActivityLimit = 200

// DayMarker summarizes one calendar cell.
type DayMarker struct {
	HasActivity    bool         `json:"hasActivity"`
	HasFinance     bool         `json:"hasFinance"`
	ActivityColors []core.Color `json:"activityColors"`
}

// MonthlyMarkers maps a date key to its marker. Days without records are absent.
type MonthlyMarkers map[string]*DayMarker

type CalendarService struct {
	activities store.ActivityStore
	finances   store.FinanceStore
}

func NewCalendarService(activities store.ActivityStore, finances store.FinanceStore) *CalendarService {
	return &CalendarService{activities: activities, finances: finances}
}

// Markers builds the month's calendar markers. month is 1-12.
// On failure it returns an empty map together with the error, so callers can
// always render the calendar.
func (s *CalendarService) Markers(ctx context.Context, sess core.Session, year, month int) (MonthlyMarkers, error) {
	if !sess.Valid() {
		return MonthlyMarkers{}, core.ErrNotAuthenticated
	}
	q, err := store.ForMonth(sess.UserID, year, month, sess.Loc())
	if err != nil {
		return MonthlyMarkers{}, err
	}

	var (
		activities []core.Activity
		finances   []core.Finance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aq := q
		aq.Sort = store.SortDateAsc
		aq.Limit = markerActivityLimit
		var err error
		activities, err = s.activities.ListActivities(gctx, aq)
		return err
	})
	g.Go(func() error {
		var err error
		finances, err = s.finances.ListFinances(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Failed to load monthly markers",
			"user_id", sess.UserID, "year", year, "month", month, "error", err)
		return MonthlyMarkers{}, fmt.Errorf("load markers %d-%02d: %w", year, month, err)
	}

	return BuildMarkers(activities, finances, sess.Loc()), nil
}

// BuildMarkers folds records into per-day markers keyed in loc.
func BuildMarkers(activities []core.Activity, finances []core.Finance, loc *time.Location) MonthlyMarkers {
	markers := MonthlyMarkers{}
	get := func(key string) *DayMarker {
		m, ok := markers[key]
		if !ok {
			m = &DayMarker{ActivityColors: []core.Color{}}
			markers[key] = m
		}
		return m
	}
	for _, a := range activities {
		m := get(core.DateKey(a.Date, loc))
		m.HasActivity = true
		if c := a.DisplayColor(); !slices.Contains(m.ActivityColors, c) {
			m.ActivityColors = append(m.ActivityColors, c)
		}
	}
	for _, f := range finances {
		get(core.DateKey(f.Date, loc)).HasFinance = true
	}
	return markers
}
