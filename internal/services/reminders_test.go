package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/store/memory"
)

func TestReminderUpcoming(t *testing.T) {
	mem := memory.New()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, wib)
	svc := NewReminderService(mem)
	svc.now = func() time.Time { return now }

	seedActivity(t, mem, core.Activity{Title: "later today", Date: now.Add(5 * time.Hour)})
	seedActivity(t, mem, core.Activity{Title: "soon", Date: now.Add(time.Hour)})
	seedActivity(t, mem, core.Activity{Title: "done", Date: now.Add(2 * time.Hour), IsCompleted: true})
	seedActivity(t, mem, core.Activity{Title: "past", Date: now.Add(-time.Hour)})
	seedActivity(t, mem, core.Activity{Title: "too far", Date: now.Add(25 * time.Hour)})
	seedActivity(t, mem, core.Activity{Title: "someone else", UserID: "user-2", Date: now.Add(time.Hour)})

	items, err := svc.Upcoming(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Upcoming() error = %v", err)
	}
	if len(items) != 2 || items[0].Title != "soon" || items[1].Title != "later today" {
		t.Fatalf("Upcoming() = %+v", items)
	}
}

func TestReminderUpcomingLimit(t *testing.T) {
	mem := memory.New()
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, wib)
	svc := NewReminderService(mem)
	svc.now = func() time.Time { return now }

	for i := 0; i < ReminderLimit+3; i++ {
		seedActivity(t, mem, core.Activity{Title: fmt.Sprintf("a%d", i), Date: now.Add(time.Duration(i+1) * time.Minute)})
	}
	items, err := svc.Upcoming(context.Background(), testSession())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != ReminderLimit || items[0].Title != "a0" {
		t.Fatalf("got %d items, first %q", len(items), items[0].Title)
	}
}

func TestReminderRequiresSession(t *testing.T) {
	svc := NewReminderService(memory.New())
	if _, err := svc.Upcoming(context.Background(), core.Session{}); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
