package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/store/memory"
)

func TestBuildMarkers(t *testing.T) {
	may3 := day(t, "2025-05-03")
	activities := []core.Activity{
		{Title: "Yoga", Date: may3, Color: core.Blue},
		{Title: "Yoga lagi", Date: may3, Color: core.Blue},
		{Title: "Belanja", Date: may3},
	}
	finances := []core.Finance{
		// 23:30 local on May 4 is May 4 16:30 UTC; it must stay on May 4.
		{Title: "Makan malam", Date: time.Date(2025, 5, 4, 16, 30, 0, 0, time.UTC), Type: core.Expense, Amount: 1},
	}

	markers := BuildMarkers(activities, finances, wib)

	if len(markers) != 2 {
		t.Fatalf("expected 2 marked days, got %d: %v", len(markers), markers)
	}
	m := markers["2025-05-03"]
	if m == nil || !m.HasActivity || m.HasFinance {
		t.Fatalf("May 3 marker = %+v", m)
	}
	if len(m.ActivityColors) != 2 || m.ActivityColors[0] != core.Blue || m.ActivityColors[1] != core.Pink {
		t.Fatalf("colors = %v", m.ActivityColors)
	}
	f := markers["2025-05-04"]
	if f == nil || f.HasActivity || !f.HasFinance || len(f.ActivityColors) != 0 {
		t.Fatalf("May 4 marker = %+v", f)
	}
}

func TestMarkersScopedToUserAndMonth(t *testing.T) {
	mem := memory.New()
	seedActivity(t, mem, core.Activity{Title: "Rapat", Date: day(t, "2025-06-01"), Color: core.Green})
	seedActivity(t, mem, core.Activity{Title: "Bulan lalu", Date: day(t, "2025-05-31")})
	seedActivity(t, mem, core.Activity{UserID: "other", Title: "Bukan milikku", Date: day(t, "2025-06-02")})
	seedFinance(t, mem, core.Finance{Title: "Gaji", Amount: 100, Type: core.Income, Date: day(t, "2025-06-30")})

	markers, err := NewCalendarService(mem, mem).Markers(context.Background(), testSession(), 2025, 6)
	if err != nil {
		t.Fatalf("Markers() error = %v", err)
	}
	if len(markers) != 2 {
		t.Fatalf("expected 2 marked days, got %v", markers)
	}
	if !markers["2025-06-01"].HasActivity || !markers["2025-06-30"].HasFinance {
		t.Fatalf("markers = %v", markers)
	}
}

func TestMarkersErrors(t *testing.T) {
	mem := memory.New()
	svc := NewCalendarService(mem, &flakyFinances{Store: mem, failLists: true})

	markers, err := svc.Markers(context.Background(), testSession(), 2025, 6)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if markers == nil || len(markers) != 0 {
		t.Fatalf("expected an empty map on failure, got %v", markers)
	}

	if _, err := svc.Markers(context.Background(), testSession(), 2025, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := svc.Markers(context.Background(), core.Session{}, 2025, 6); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
