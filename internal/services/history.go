package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

// HistoryLimit caps one month of transaction history.
const HistoryLimit = 500

// HistoryFilter selects which finance types the history shows.
type HistoryFilter string

const (
	FilterAll     HistoryFilter = "all"
	FilterIncome  HistoryFilter = "income"
	FilterExpense HistoryFilter = "expense"
)

// ParseHistoryFilter accepts the canonical names, the Indonesian aliases
// and an empty value for "all".
func ParseHistoryFilter(s string) (HistoryFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "semua":
		return FilterAll, nil
	}
	t, err := core.ParseFinanceType(s)
	if err != nil {
		return "", err
	}
	return HistoryFilter(t), nil
}

type HistoryService struct {
	finances store.FinanceStore
	events   *FinanceEvents
}

func NewHistoryService(finances store.FinanceStore, events *FinanceEvents) *HistoryService {
	return &HistoryService{finances: finances, events: events}
}

// List returns a month of finances, newest first. month is 1-12.
func (s *HistoryService) List(ctx context.Context, sess core.Session, year, month int, filter HistoryFilter) ([]core.Finance, error) {
	if !sess.Valid() {
		return nil, core.ErrNotAuthenticated
	}
	q, err := store.ForMonth(sess.UserID, year, month, sess.Loc())
	if err != nil {
		return nil, err
	}
	if filter != FilterAll && filter != "" {
		q.Type = core.FinanceType(filter)
	}
	q.Sort = store.SortDateDesc
	q.Limit = HistoryLimit

	records, err := s.finances.ListFinances(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list history %d-%02d: %w", year, month, err)
	}
	return records, nil
}

// DeleteSelected removes every id owned by the session user. All deletes
// run concurrently; ids that are not found are skipped. The first other
// failure is returned after every delete has finished.
func (s *HistoryService) DeleteSelected(ctx context.Context, sess core.Session, ids []string) (int, ChangeSet, error) {
	if !sess.Valid() {
		return 0, ChangeSet{}, core.ErrNotAuthenticated
	}

	var (
		mu      sync.Mutex
		deleted []string
		dates   []time.Time
		g       errgroup.Group
	)
	for _, id := range dedupe(ids) {
		g.Go(func() error {
			f, err := s.finances.GetFinance(ctx, sess.UserID, id)
			if errors.Is(err, core.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("load finance %s: %w", id, err)
			}
			if err := s.finances.DeleteFinance(ctx, sess.UserID, id); err != nil && !errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("delete finance %s: %w", id, err)
			}
			mu.Lock()
			deleted = append(deleted, id)
			dates = append(dates, f.Date)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	s.events.Deleted(ctx, sess.UserID, deleted...)
	return len(deleted), newChangeSet(sess, dates, financeViews...), err
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
