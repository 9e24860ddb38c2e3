package player

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/record"
)

type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (*Player, error)
	// FindByNameKey matches on the normalized full-name key, earliest
	// created first.
	FindByNameKey(ctx context.Context, nameKey string) ([]Player, error)
	// Upsert inserts or refreshes by the external_id natural key; callers
	// must only pass players with a non-empty external id.
	Upsert(ctx context.Context, p Player) (record.Upserted, error)
	// Insert creates a player without an external id (tournament sign-ups
	// for unlicensed players). Used only after resolution found no match.
	Insert(ctx context.Context, p Player) (int64, error)
	// Update refreshes display fields by id without clearing a stored
	// external id.
	Update(ctx context.Context, p Player) error
}
