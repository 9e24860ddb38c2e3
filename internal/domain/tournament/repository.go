package tournament

import (
	"context"

	"github.com/mkrogh/ttsync/internal/domain/record"
)

type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (*Tournament, error)
	FindByNameKey(ctx context.Context, nameKey string) ([]Tournament, error)
	// Upsert inserts or refreshes by the external_id natural key.
	Upsert(ctx context.Context, t Tournament) (record.Upserted, error)
	// Update refreshes display fields by id (alias-matched rows keep their
	// own external id and name key).
	Update(ctx context.Context, t Tournament) error
}

type ClassRepository interface {
	FindByNaturalKey(ctx context.Context, tournamentID int64, externalID string) (*Class, error)
	Upsert(ctx context.Context, c Class) (record.Upserted, error)
}

// StageRepository exposes the fixed stage lookup table; the pipeline loads
// it wholesale once per run.
type StageRepository interface {
	ListAll(ctx context.Context) ([]Stage, error)
}
