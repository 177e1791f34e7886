//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

// Run with: POSTGRES_TEST_DSN=... go test -tags=integration ./internal/storage/postgres

func TestIntegration_PostgresFlow(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping integration test")
	}
	repo, err := Open(dsn, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	user := "it-" + time.Now().Format("150405.000")
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	created, err := repo.CreateFinances(ctx, []core.Finance{
		{UserID: user, Title: "Sewa", Amount: 100, Type: core.Expense, Date: date},
		{UserID: user, Title: "Sewa", Amount: 100, Type: core.Expense, Date: date.AddDate(0, 0, 1)},
	})
	if err != nil || len(created) != 2 {
		t.Fatalf("batch: %d %v", len(created), err)
	}
	got, err := repo.ListFinances(ctx, store.Query{UserID: user, Sort: store.SortDateDesc})
	if err != nil || len(got) != 2 || !got[0].Date.After(got[1].Date) {
		t.Fatalf("list: %+v %v", got, err)
	}
	for _, f := range created {
		if err := repo.DeleteFinance(ctx, "someone-else", f.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("foreign delete: %v", err)
		}
		if err := repo.DeleteFinance(ctx, user, f.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
	}
}
