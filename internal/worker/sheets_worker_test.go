package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailymeow/internal/amqp"
	"dailymeow/internal/core"
)

type fakeMirror struct {
	upserts []core.Finance
	deletes []string
	err     error
}

func (m *fakeMirror) UpsertFinance(_ context.Context, f core.Finance) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.upserts = append(m.upserts, f)
	return "Finances!A2:H2", nil
}

func (m *fakeMirror) DeleteFinance(_ context.Context, userID, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deletes = append(m.deletes, userID+"/"+id)
	return nil
}

// fakeSource replays events and then blocks until cancelled, like a live consumer.
type fakeSource struct {
	events []*amqp.FinanceEvent
	errs   []error
}

func (s *fakeSource) ConsumeFinanceEvents(ctx context.Context, handler func(context.Context, *amqp.FinanceEvent) error) error {
	for _, ev := range s.events {
		s.errs = append(s.errs, handler(ctx, ev))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestSheetsWorker_HandleEvent(t *testing.T) {
	f := core.Finance{
		ID:     "f1",
		UserID: "u1",
		Title:  "Kopi",
		Amount: 18000,
		Type:   core.Expense,
		Date:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name        string
		msg         *amqp.FinanceEvent
		mirrorErr   error
		wantErr     bool
		wantUpserts int
		wantDeletes int
	}{
		{name: "upsert", msg: amqp.NewFinanceUpsert(f), wantUpserts: 1},
		{name: "delete", msg: amqp.NewFinanceDelete("u1", "f1"), wantDeletes: 1},
		{name: "unknown action dropped", msg: &amqp.FinanceEvent{Action: "archive", ID: "f1"}},
		{name: "mirror failure requeues", msg: amqp.NewFinanceUpsert(f), mirrorErr: errors.New("quota"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mirror := &fakeMirror{err: tt.mirrorErr}
			w := NewSheetsWorker(&fakeSource{}, mirror)

			err := w.HandleEvent(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(mirror.upserts) != tt.wantUpserts || len(mirror.deletes) != tt.wantDeletes {
				t.Errorf("got %d upserts / %d deletes", len(mirror.upserts), len(mirror.deletes))
			}
		})
	}
}

func TestSheetsWorker_UpsertCarriesRecord(t *testing.T) {
	f := core.Finance{ID: "f9", UserID: "u2", Title: "Gaji", Amount: 5000000, Type: core.Income,
		Date: time.Date(2025, 2, 28, 17, 0, 0, 0, time.UTC)}
	mirror := &fakeMirror{}
	w := NewSheetsWorker(&fakeSource{}, mirror)

	if err := w.HandleEvent(context.Background(), amqp.NewFinanceUpsert(f)); err != nil {
		t.Fatal(err)
	}
	got := mirror.upserts[0]
	if got.ID != f.ID || got.UserID != f.UserID || got.Amount != f.Amount || got.Type != f.Type || !got.Date.Equal(f.Date) {
		t.Errorf("mirrored %+v, want %+v", got, f)
	}
}

func TestSheetsWorker_RunStopsOnCancel(t *testing.T) {
	source := &fakeSource{events: []*amqp.FinanceEvent{
		amqp.NewFinanceDelete("u1", "a"),
		amqp.NewFinanceDelete("u1", "b"),
	}}
	mirror := &fakeMirror{}
	w := NewSheetsWorker(source, mirror)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if len(mirror.deletes) != 2 {
		t.Errorf("expected 2 deletes, got %v", mirror.deletes)
	}
}
