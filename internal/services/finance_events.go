package services

import (
	"context"
	"log/slog"

	"dailymeow/internal/amqp"
	"dailymeow/internal/core"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishFinanceEvent(ctx context.Context, msg *amqp.FinanceEvent) error
}

// FinanceEvents announces finance changes after they are stored. Publishing
// is best effort: the record is already saved, so failures are only logged.
type FinanceEvents struct {
	publisher EventPublisher
}

func NewFinanceEvents(publisher EventPublisher) *FinanceEvents {
	return &FinanceEvents{publisher: publisher}
}

func (e *FinanceEvents) Created(ctx context.Context, records []core.Finance) {
	for _, f := range records {
		e.publish(ctx, amqp.NewFinanceUpsert(f))
	}
}

func (e *FinanceEvents) Deleted(ctx context.Context, userID string, ids ...string) {
	for _, id := range ids {
		e.publish(ctx, amqp.NewFinanceDelete(userID, id))
	}
}

func (e *FinanceEvents) publish(ctx context.Context, msg *amqp.FinanceEvent) {
	if e == nil || e.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping finance event", "action", msg.Action, "id", msg.ID)
		return
	}
	if err := e.publisher.PublishFinanceEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish finance event",
			"action", msg.Action, "id", msg.ID, "error", err)
	}
}
