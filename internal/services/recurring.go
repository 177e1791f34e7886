package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

// MaxRangeDays caps the inclusive number of days a range entry may cover.
const MaxRangeDays = 365

type EntryMode string

const (
	ModeSingle EntryMode = "single"
	ModeRange  EntryMode = "range"
)

// FinanceEntry is the finance form as submitted. Amount is already parsed;
// dates are YYYY-MM-DD keys in the caller's timezone.
type FinanceEntry struct {
	Title     string
	Type      string
	Amount    int64
	StartDate string
	EndDate   string
	Mode      EntryMode
	Time      string // optional HH:MM, single mode only
}

// BatchError reports a range entry that failed part-way.
type BatchError struct {
	Requested  int
	Created    int
	RolledBack int
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("created %d of %d records, rolled back %d: %v", e.Created, e.Requested, e.RolledBack, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ExpandResult is what a successful entry produced.
type ExpandResult struct {
	Created []core.Finance
	Changes ChangeSet
}

// Plan validates an entry and builds the records it describes without
// touching any store. Checks run in a fixed order and the first failure wins.
func Plan(sess core.Session, in FinanceEntry) ([]core.Finance, error) {
	if in.Amount <= 0 {
		return nil, core.ErrInvalidAmount
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, core.ErrEmptyTitle
	}
	if len(title) > core.MaxTitleLength {
		return nil, core.ErrTitleTooLong
	}
	loc := sess.Loc()
	start, err := core.ParseDateKey(in.StartDate, loc)
	if err != nil {
		return nil, err
	}
	if !sess.Valid() {
		return nil, core.ErrNotAuthenticated
	}
	typ := core.Income
	if in.Type != "" {
		if typ, err = core.ParseFinanceType(in.Type); err != nil {
			return nil, err
		}
	}

	template := core.Finance{UserID: sess.UserID, Title: title, Amount: in.Amount, Type: typ}

	// range mode without an end date is a single entry
	if in.Mode != ModeRange || strings.TrimSpace(in.EndDate) == "" {
		clock, err := core.ParseClock(in.Time)
		if err != nil {
			return nil, err
		}
		f := template
		f.Date = clock.On(start, loc)
		return []core.Finance{f}, nil
	}

	end, err := core.ParseDateKey(in.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRange, err)
	}
	if end.Before(start) {
		return nil, core.ErrInvalidRange
	}
	days := core.DaysBetween(start, end, loc) + 1
	if days > MaxRangeDays {
		return nil, fmt.Errorf("%w: %d days requested", core.ErrRangeTooLong, days)
	}

	out := make([]core.Finance, days)
	for i := range out {
		f := template
		f.Date = core.AddDays(start, i, loc)
		out[i] = f
	}
	return out, nil
}

// RecurringExpander turns a finance entry into stored records.
type RecurringExpander struct {
	finances store.FinanceStore
	events   *FinanceEvents
}

func NewRecurringExpander(finances store.FinanceStore, events *FinanceEvents) *RecurringExpander {
	return &RecurringExpander{finances: finances, events: events}
}

// Expand validates and stores an entry. Stores that support atomic batches
// get one batch call. Otherwise every create is issued concurrently and a
// failure deletes whatever was created, reported as a *BatchError.
func (e *RecurringExpander) Expand(ctx context.Context, sess core.Session, in FinanceEntry) (ExpandResult, error) {
	records, err := Plan(sess, in)
	if err != nil {
		return ExpandResult{}, err
	}

	var created []core.Finance
	switch {
	case len(records) == 1:
		f, err := e.finances.CreateFinance(ctx, records[0])
		if err != nil {
			return ExpandResult{}, fmt.Errorf("create finance: %w", err)
		}
		created = []core.Finance{f}
	default:
		if batcher, ok := e.finances.(store.FinanceBatchCreator); ok {
			created, err = batcher.CreateFinances(ctx, records)
			if err != nil {
				return ExpandResult{}, &BatchError{Requested: len(records), Err: err}
			}
		} else if created, err = e.fanOut(ctx, sess, records); err != nil {
			return ExpandResult{}, err
		}
	}

	slog.InfoContext(ctx, "Finance entry stored",
		"user_id", sess.UserID,
		"mode", in.Mode,
		"records", len(created))

	e.events.Created(ctx, created)

	dates := make([]time.Time, len(created))
	for i, f := range created {
		dates[i] = f.Date
	}
	return ExpandResult{Created: created, Changes: newChangeSet(sess, dates, financeViews...)}, nil
}

func (e *RecurringExpander) fanOut(ctx context.Context, sess core.Session, records []core.Finance) ([]core.Finance, error) {
	results := make([]core.Finance, len(records))
	stored := make([]bool, len(records))

	// a plain group: every create runs to completion even after a failure,
	// so the rollback below knows exactly what exists
	var g errgroup.Group
	for i, rec := range records {
		g.Go(func() error {
			f, err := e.finances.CreateFinance(ctx, rec)
			if err != nil {
				return fmt.Errorf("create record for %s: %w", core.DateKey(rec.Date, sess.Loc()), err)
			}
			results[i] = f
			stored[i] = true
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		return results, nil
	}

	batchErr := &BatchError{Requested: len(records), Err: err}
	cleanup := context.WithoutCancel(ctx)
	for i, ok := range stored {
		if !ok {
			continue
		}
		batchErr.Created++
		if derr := e.finances.DeleteFinance(cleanup, sess.UserID, results[i].ID); derr != nil && !errors.Is(derr, core.ErrNotFound) {
			slog.ErrorContext(ctx, "Failed to roll back finance record", "id", results[i].ID, "error", derr)
			continue
		}
		batchErr.RolledBack++
	}

	slog.WarnContext(ctx, "Finance range entry failed",
		"user_id", sess.UserID,
		"requested", batchErr.Requested,
		"created", batchErr.Created,
		"rolled_back", batchErr.RolledBack,
		"error", err)
	return nil, batchErr
}
