package services

import (
	"context"
	"fmt"
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

const (
	ReminderWindow = 24 * time.Hour
	ReminderLimit  = 10
)

type ReminderService struct {
	activities store.ActivityStore
	now        func() time.Time
}

func NewReminderService(activities store.ActivityStore) *ReminderService {
	return &ReminderService{activities: activities, now: time.Now}
}

// Upcoming lists pending activities dated within the next 24 hours.
func (s *ReminderService) Upcoming(ctx context.Context, sess core.Session) ([]core.Activity, error) {
	if !sess.Valid() {
		return nil, core.ErrNotAuthenticated
	}
	now := s.now()
	pending := false
	items, err := s.activities.ListActivities(ctx, store.Query{
		UserID:    sess.UserID,
		From:      now,
		To:        now.Add(ReminderWindow),
		Completed: &pending,
		Sort:      store.SortDateAsc,
		Limit:     ReminderLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return items, nil
}
