package ranking

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/record"
)

type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (*Group, error)
	FindByNameKey(ctx context.Context, nameKey string) ([]Group, error)
	// Upsert inserts or refreshes by the name_key natural key.
	Upsert(ctx context.Context, g Group) (record.Upserted, error)
	// Update refreshes display fields by id.
	Update(ctx context.Context, g Group) error
}
