// Package store defines the record store ports used by the services.
//
// Every read takes a Query and every delete takes the owner id, so
// ownership is enforced by the store and not by the caller.
package store

import (
	"context"

	"dailymeow/internal/core"
)

type (
	ActivityStore interface {
		CreateActivity(ctx context.Context, a core.Activity) (core.Activity, error)
		// GetActivity returns core.ErrNotFound when id does not belong to userID.
		GetActivity(ctx context.Context, userID, id string) (core.Activity, error)
		ListActivities(ctx context.Context, q Query) ([]core.Activity, error)
		// DeleteActivity returns core.ErrNotFound when id does not belong to userID.
		DeleteActivity(ctx context.Context, userID, id string) error
	}

	FinanceStore interface {
		CreateFinance(ctx context.Context, f core.Finance) (core.Finance, error)
		GetFinance(ctx context.Context, userID, id string) (core.Finance, error)
		ListFinances(ctx context.Context, q Query) ([]core.Finance, error)
		// DeleteFinance returns core.ErrNotFound when id does not belong to userID.
		DeleteFinance(ctx context.Context, userID, id string) error
	}

	// FinanceBatchCreator is implemented by stores that can insert a batch
	// atomically. Either every record is written or none is.
	FinanceBatchCreator interface {
		CreateFinances(ctx context.Context, fs []core.Finance) ([]core.Finance, error)
	}

	ProfileStore interface {
		// CreateProfile returns core.ErrNameTaken for a duplicate name.
		CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error)
		GetProfile(ctx context.Context, id string) (core.Profile, error)
		GetProfileByName(ctx context.Context, name string) (core.Profile, error)
		UpdateProfile(ctx context.Context, p core.Profile) (core.Profile, error)
	}

	// Store is the full record store a backend provides.
	Store interface {
		ActivityStore
		FinanceStore
		ProfileStore
		Close() error
	}
)
