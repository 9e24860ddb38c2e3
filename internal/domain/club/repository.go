package club

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/record"
)

// Repository describes club persistence needs from the resolvers.
type Repository interface {
	// FindByExternalID returns nil when no club carries the external id.
	FindByExternalID(ctx context.Context, externalID string) (*Club, error)
	// FindByNameKey returns every club sharing the normalized key, earliest
	// created first.
	FindByNameKey(ctx context.Context, nameKey string) ([]Club, error)
	// Upsert inserts or refreshes by the name_key natural key.
	Upsert(ctx context.Context, c Club) (record.Upserted, error)
	// Update refreshes fields by id. A matched club may have been found
	// through its external id or an alias, in which case its stored name
	// key differs from the incoming one and an upsert would duplicate the
	// row. Empty ExternalID or Name leave the stored values untouched.
	Update(ctx context.Context, c Club) error
}
