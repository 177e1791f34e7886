package sheets

import (
	"context"

	"dailymeow/internal/core"
)

// Ports for outbound adapters.
type (
	// FinanceMirror keeps a copy of finance records outside the store.
	// Both operations are idempotent so redelivered events are harmless.
	FinanceMirror interface {
		UpsertFinance(ctx context.Context, f core.Finance) (rowRef string, err error)
		DeleteFinance(ctx context.Context, userID, id string) error
	}
)
