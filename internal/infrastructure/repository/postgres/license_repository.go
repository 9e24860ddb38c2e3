package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrogh/ttsync/internal/domain/license"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

type LicenseRepository struct {
	db dbtx
}

func NewLicenseRepository(db dbtx) *LicenseRepository {
	return &LicenseRepository{db: db}
}

func (r *LicenseRepository) Upsert(ctx context.Context, l license.License) (record.Upserted, error) {
	if err := l.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate license: %w", err)
	}
	return upsertRow(ctx, r.db, "licenses", []string{"player_id", "season", "kind"}, licenseInsertModel{
		PlayerID:  l.PlayerID,
		ClubID:    nullableInt64(l.ClubID),
		Season:    l.Season,
		Kind:      l.Kind,
		ValidFrom: l.ValidFrom,
	})
}

type licenseInsertModel struct {
	PlayerID  int64      `db:"player_id"`
	ClubID    *int64     `db:"club_id"`
	Season    string     `db:"season"`
	Kind      string     `db:"kind"`
	ValidFrom *time.Time `db:"valid_from"`
}
