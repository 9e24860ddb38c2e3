package postgres

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/club"
	"github.com/mkrogh/ttsync/internal/domain/record"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
	"github.com/mkrogh/ttsync/internal/platform/querycache"
)

type ClubRepository struct {
	db    dbtx
	cache *querycache.Cache
}

var clubSelectColumns = []string{"id", "external_id", "name", "name_key"}

func NewClubRepository(db dbtx) *ClubRepository {
	return &ClubRepository{db: db, cache: querycache.New()}
}

func (r *ClubRepository) FindByExternalID(ctx context.Context, externalID string) (*club.Club, error) {
	query, args, err := qb.Select(clubSelectColumns...).From("clubs").
		Where(qb.Eq("external_id", externalID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select club by external id query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "clubs")
	if err != nil {
		return nil, fmt.Errorf("select club by external id: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := clubFromRow(rows[0])
	return &found, nil
}

func (r *ClubRepository) FindByNameKey(ctx context.Context, nameKey string) ([]club.Club, error) {
	query, args, err := qb.Select(clubSelectColumns...).From("clubs").
		Where(qb.Eq("name_key", nameKey)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select clubs by name key query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "clubs")
	if err != nil {
		return nil, fmt.Errorf("select clubs by name key: %w", err)
	}
	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, clubFromRow(row))
	}
	return out, nil
}

func (r *ClubRepository) Upsert(ctx context.Context, c club.Club) (record.Upserted, error) {
	if err := c.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate club: %w", err)
	}
	up, err := upsertRow(ctx, r.db, "clubs", []string{"name_key"}, clubInsertModel{
		ExternalID: nullableString(c.ExternalID),
		Name:       c.Name,
		NameKey:    c.NameKey,
	})
	if err != nil {
		return record.Upserted{}, err
	}
	r.cache.Clear()
	return up, nil
}

func (r *ClubRepository) Update(ctx context.Context, c club.Club) error {
	if c.ID <= 0 {
		return fmt.Errorf("update club: id is required")
	}
	// Empty incoming fields keep the stored values; a bare name match must
	// not erase an external id learned from the license register.
	const query = `UPDATE clubs SET
    name = COALESCE(NULLIF($2, ''), name),
    name_key = COALESCE(NULLIF($3, ''), name_key),
    external_id = COALESCE(NULLIF($4, ''), external_id),
    updated_at = NOW()
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.NameKey, c.ExternalID); err != nil {
		return fmt.Errorf("update club %d: %w", c.ID, err)
	}
	r.cache.Clear()
	return nil
}

func clubFromRow(row map[string]any) club.Club {
	return club.Club{
		ID:         rowInt64(row, "id"),
		ExternalID: rowString(row, "external_id"),
		Name:       rowString(row, "name"),
		NameKey:    rowString(row, "name_key"),
	}
}

type clubInsertModel struct {
	ExternalID *string `db:"external_id"`
	Name       string  `db:"name"`
	NameKey    string  `db:"name_key"`
}
