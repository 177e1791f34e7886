package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

type RecapService struct {
	activities store.ActivityStore
	finances   store.FinanceStore
}

func NewRecapService(activities store.ActivityStore, finances store.FinanceStore) *RecapService {
	return &RecapService{activities: activities, finances: finances}
}

// Month totals one calendar month. month is 1-12.
func (s *RecapService) Month(ctx context.Context, sess core.Session, year, month int) (core.MonthlyRecap, error) {
	if !sess.Valid() {
		return core.MonthlyRecap{}, core.ErrNotAuthenticated
	}
	q, err := store.ForMonth(sess.UserID, year, month, sess.Loc())
	if err != nil {
		return core.MonthlyRecap{}, err
	}

	var (
		activities []core.Activity
		finances   []core.Finance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activities, err = s.activities.ListActivities(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		finances, err = s.finances.ListFinances(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthlyRecap{}, fmt.Errorf("load recap %d-%02d: %w", year, month, err)
	}

	summary := core.Summarize(finances)
	recap := core.MonthlyRecap{
		Year:            year,
		Month:           month,
		TotalActivities: len(activities),
		TotalIncome:     summary.Income,
		TotalExpense:    summary.Expense,
		Balance:         summary.Balance(),
	}
	for _, a := range activities {
		if a.IsCompleted {
			recap.CompletedActivities++
		}
	}
	return recap, nil
}
