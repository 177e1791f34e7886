package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dailymeow/internal/amqp"
	"dailymeow/internal/core"
	"dailymeow/internal/store"
	"dailymeow/internal/store/memory"
)

var wib = time.FixedZone("WIB", 7*60*60)

func testSession() core.Session {
	return core.Session{UserID: "user-1", Location: wib}
}

func day(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := core.ParseDateKey(key, wib)
	if err != nil {
		t.Fatalf("parse %q: %v", key, err)
	}
	return d
}

func seedFinance(t *testing.T, s store.FinanceStore, f core.Finance) core.Finance {
	t.Helper()
	if f.UserID == "" {
		f.UserID = testSession().UserID
	}
	created, err := s.CreateFinance(context.Background(), f)
	if err != nil {
		t.Fatalf("seed finance: %v", err)
	}
	return created
}

func seedActivity(t *testing.T, s store.ActivityStore, a core.Activity) core.Activity {
	t.Helper()
	if a.UserID == "" {
		a.UserID = testSession().UserID
	}
	if a.Time == "" {
		a.Time = core.DefaultTime
	}
	created, err := s.CreateActivity(context.Background(), a)
	if err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	return created
}

var errBoom = errors.New("boom")

// flakyFinances fails CreateFinance for records dated failOn and can fail
// every list call.
type flakyFinances struct {
	*memory.Store
	failOn    string
	failLists bool
	creates   int
	mu        sync.Mutex
}

func (f *flakyFinances) CreateFinance(ctx context.Context, rec core.Finance) (core.Finance, error) {
	f.mu.Lock()
	f.creates++
	f.mu.Unlock()
	if f.failOn != "" && core.DateKey(rec.Date, wib) == f.failOn {
		return core.Finance{}, errBoom
	}
	return f.Store.CreateFinance(ctx, rec)
}

func (f *flakyFinances) ListFinances(ctx context.Context, q store.Query) ([]core.Finance, error) {
	if f.failLists {
		return nil, errBoom
	}
	return f.Store.ListFinances(ctx, q)
}

// batchFinances adds an atomic batch insert on top of the memory store.
type batchFinances struct {
	*memory.Store
	batches int
	fail    bool
}

func (b *batchFinances) CreateFinances(ctx context.Context, fs []core.Finance) ([]core.Finance, error) {
	b.batches++
	if b.fail {
		return nil, errBoom
	}
	out := make([]core.Finance, 0, len(fs))
	for _, f := range fs {
		created, err := b.Store.CreateFinance(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.FinanceEvent
	err    error
}

func (p *recordingPublisher) PublishFinanceEvent(_ context.Context, msg *amqp.FinanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return p.err
}

func (p *recordingPublisher) count(action string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Action == action {
			n++
		}
	}
	return n
}
