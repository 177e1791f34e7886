package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dailymeow/internal/amqp"
	"dailymeow/internal/sheets"
)

// EventSource is satisfied by *amqp.Client.
type EventSource interface {
	ConsumeFinanceEvents(ctx context.Context, handler func(context.Context, *amqp.FinanceEvent) error) error
}

// SheetsWorker mirrors finance changes into a spreadsheet.
type SheetsWorker struct {
	source  EventSource
	mirror  sheets.FinanceMirror
	timeout time.Duration
}

func NewSheetsWorker(source EventSource, mirror sheets.FinanceMirror) *SheetsWorker {
	return &SheetsWorker{
		source:  source,
		mirror:  mirror,
		timeout: 30 * time.Second,
	}
}

// Run consumes events until ctx is cancelled.
func (w *SheetsWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Sheets worker started")
	err := w.source.ConsumeFinanceEvents(ctx, w.HandleEvent)
	if ctx.Err() != nil {
		slog.InfoContext(ctx, "Sheets worker stopped")
		return nil
	}
	return err
}

// HandleEvent applies one event to the mirror. A returned error requeues
// the delivery.
func (w *SheetsWorker) HandleEvent(ctx context.Context, msg *amqp.FinanceEvent) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	switch msg.Action {
	case amqp.ActionUpsert:
		ref, err := w.mirror.UpsertFinance(ctx, msg.Finance())
		if err != nil {
			return fmt.Errorf("mirror finance %s: %w", msg.ID, err)
		}
		slog.InfoContext(ctx, "Finance mirrored",
			"id", msg.ID,
			"user_id", msg.UserID,
			"ref", ref,
			"lag", time.Since(msg.Timestamp).Round(time.Millisecond))
	case amqp.ActionDelete:
		if err := w.mirror.DeleteFinance(ctx, msg.UserID, msg.ID); err != nil {
			return fmt.Errorf("remove mirrored finance %s: %w", msg.ID, err)
		}
		slog.InfoContext(ctx, "Mirrored finance removed", "id", msg.ID, "user_id", msg.UserID)
	default:
		// FinanceEventFromJSON already rejects these; drop rather than requeue forever.
		slog.WarnContext(ctx, "Ignoring finance event with unknown action", "action", msg.Action, "id", msg.ID)
	}
	return nil
}
