package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

// ActivityEntry is the activity form as submitted.
type ActivityEntry struct {
	Title string
	Date  string // YYYY-MM-DD
	Time  string // HH:MM, defaults to 00:00
	Color string
	Notes string
}

type ActivityService struct {
	activities store.ActivityStore
}

func NewActivityService(activities store.ActivityStore) *ActivityService {
	return &ActivityService{activities: activities}
}

// Create stores a new, not yet completed activity at local midnight of its day.
func (s *ActivityService) Create(ctx context.Context, sess core.Session, in ActivityEntry) (core.Activity, ChangeSet, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return core.Activity{}, ChangeSet{}, core.ErrEmptyTitle
	}
	day, err := core.ParseDateKey(in.Date, sess.Loc())
	if err != nil {
		return core.Activity{}, ChangeSet{}, err
	}
	if !sess.Valid() {
		return core.Activity{}, ChangeSet{}, core.ErrNotAuthenticated
	}
	clock, err := core.ParseClock(in.Time)
	if err != nil {
		return core.Activity{}, ChangeSet{}, err
	}
	color, err := core.ParseColor(in.Color)
	if err != nil {
		return core.Activity{}, ChangeSet{}, err
	}

	a, err := s.activities.CreateActivity(ctx, core.Activity{
		UserID: sess.UserID,
		Title:  title,
		Date:   day,
		Time:   clock.String(),
		Color:  color,
		Notes:  strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return core.Activity{}, ChangeSet{}, fmt.Errorf("create activity: %w", err)
	}

	slog.InfoContext(ctx, "Activity stored", "user_id", sess.UserID, "id", a.ID, "date", in.Date)
	return a, newChangeSet(sess, []time.Time{day}, activityViews...), nil
}

// Day lists one day's activities ordered by time.
func (s *ActivityService) Day(ctx context.Context, sess core.Session, dayKey string) ([]core.Activity, error) {
	if !sess.Valid() {
		return nil, core.ErrNotAuthenticated
	}
	day, err := core.ParseDateKey(dayKey, sess.Loc())
	if err != nil {
		return nil, err
	}
	q := store.ForDay(sess.UserID, day, sess.Loc())
	q.Sort = store.SortTimeAsc
	return s.activities.ListActivities(ctx, q)
}

// Delete removes one of the session user's activities on dayKey. An id
// stored on another day is reported as core.ErrNotFound.
func (s *ActivityService) Delete(ctx context.Context, sess core.Session, dayKey, id string) (ChangeSet, error) {
	if !sess.Valid() {
		return ChangeSet{}, core.ErrNotAuthenticated
	}
	day, err := core.ParseDateKey(dayKey, sess.Loc())
	if err != nil {
		return ChangeSet{}, err
	}
	a, err := activityOnDay(ctx, s.activities, sess, day, id)
	if err != nil {
		return ChangeSet{}, err
	}
	if err := s.activities.DeleteActivity(ctx, sess.UserID, id); err != nil {
		return ChangeSet{}, fmt.Errorf("delete activity %s: %w", id, err)
	}
	return newChangeSet(sess, []time.Time{a.Date}, activityViews...), nil
}

func activityOnDay(ctx context.Context, activities store.ActivityStore, sess core.Session, day time.Time, id string) (core.Activity, error) {
	a, err := activities.GetActivity(ctx, sess.UserID, id)
	if err != nil {
		return core.Activity{}, fmt.Errorf("get activity %s: %w", id, err)
	}
	if !sameDay(a.Date, day, sess.Loc()) {
		return core.Activity{}, fmt.Errorf("activity %s: %w", id, core.ErrNotFound)
	}
	return a, nil
}

func financeOnDay(ctx context.Context, finances store.FinanceStore, sess core.Session, day time.Time, id string) (core.Finance, error) {
	f, err := finances.GetFinance(ctx, sess.UserID, id)
	if err != nil {
		return core.Finance{}, fmt.Errorf("get finance %s: %w", id, err)
	}
	if !sameDay(f.Date, day, sess.Loc()) {
		return core.Finance{}, fmt.Errorf("finance %s: %w", id, core.ErrNotFound)
	}
	return f, nil
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	return core.DateKey(a, loc) == core.DateKey(b, loc)
}
