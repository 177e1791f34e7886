package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteFinanceRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	jakarta, _ := time.LoadLocation("Asia/Jakarta")
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, jakarta)

	f, err := repo.CreateFinance(ctx, core.Finance{UserID: "u1", Title: "Gaji", Amount: 5000000, Type: core.Income, Date: date})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetFinance(ctx, "u1", f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Date.Equal(date) || got.Amount != 5000000 || got.Type != core.Income {
		t.Fatalf("unexpected record %+v", got)
	}
	if core.DateKey(got.Date, jakarta) != "2025-03-14" {
		t.Fatalf("date key drifted: %s", core.DateKey(got.Date, jakarta))
	}

	if err := repo.DeleteFinance(ctx, "u2", f.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if err := repo.DeleteFinance(ctx, "u1", f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetFinance(ctx, "u1", f.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSQLiteListFinancesRangeAndType(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for day := 1; day <= 5; day++ {
		typ := core.Expense
		if day%2 == 0 {
			typ = core.Income
		}
		_, err := repo.CreateFinance(ctx, core.Finance{
			UserID: "u1", Title: "x", Amount: int64(day * 100), Type: typ,
			Date: time.Date(2025, 4, day, 12, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	q, err := store.ForMonth("u1", 2025, 4, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	q.Type = core.Expense
	q.Sort = store.SortDateDesc
	got, err := repo.ListFinances(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Amount != 500 || got[2].Amount != 100 {
		t.Fatalf("unexpected list %+v", got)
	}

	day := store.ForDay("u1", time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), time.UTC)
	got, _ = repo.ListFinances(ctx, day)
	if len(got) != 1 || got[0].Amount != 200 {
		t.Fatalf("day filter: %+v", got)
	}

	if _, err := repo.ListFinances(ctx, store.Query{UserID: "u1", Sort: "amount; DROP TABLE finances"}); err == nil {
		t.Fatal("expected unknown sort to be rejected")
	}
}

func TestSQLiteBatchIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	batch := []core.Finance{
		{UserID: "u1", Title: "Sewa", Amount: 100, Type: core.Expense, Date: date},
		{UserID: "u1", Title: "Sewa", Amount: 100, Type: core.Expense, Date: date.AddDate(0, 0, 1)},
	}
	created, err := repo.CreateFinances(ctx, batch)
	if err != nil || len(created) != 2 {
		t.Fatalf("batch: %d %v", len(created), err)
	}

	bad := append(batch, core.Finance{UserID: "u1", Title: "Sewa", Amount: 0, Type: core.Expense, Date: date})
	if _, err := repo.CreateFinances(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected validation error, got %v", err)
	}
	all, _ := repo.ListFinances(ctx, store.Query{UserID: "u1"})
	if len(all) != 2 {
		t.Fatalf("partial batch leaked: %d records", len(all))
	}
}

func TestSQLiteActivities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, tm := range []string{"18:00", "07:30", "12:00"} {
		if _, err := repo.CreateActivity(ctx, core.Activity{UserID: "u1", Title: "a " + tm, Date: day, Time: tm, Color: core.Blue}); err != nil {
			t.Fatal(err)
		}
	}
	q := store.ForDay("u1", day, time.UTC)
	q.Sort = store.SortTimeAsc
	got, err := repo.ListActivities(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Time != "07:30" || got[2].Time != "18:00" {
		t.Fatalf("unexpected order %+v", got)
	}
	pending := false
	q.Completed = &pending
	q.Limit = 2
	got, _ = repo.ListActivities(ctx, q)
	if len(got) != 2 {
		t.Fatalf("limit/completed filter: %d", len(got))
	}
}

func TestSQLiteProfiles(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p, err := repo.CreateProfile(ctx, core.Profile{Name: "meow", Phone: 812, PasswordHash: "h"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateProfile(ctx, core.Profile{Name: "Meow", PasswordHash: "h"}); !errors.Is(err, core.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	byName, err := repo.GetProfileByName(ctx, "MEOW")
	if err != nil || byName.ID != p.ID {
		t.Fatalf("by name: %+v %v", byName, err)
	}
	p.Timezone = "Asia/Jakarta"
	p.AvatarFileRef = p.ID + ".png"
	updated, err := repo.UpdateProfile(ctx, p)
	if err != nil || updated.Timezone != "Asia/Jakarta" || updated.AvatarFileRef == "" {
		t.Fatalf("update: %+v %v", updated, err)
	}
	if _, err := repo.GetProfile(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
