package postgres

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/ranking"
	"github.com/mkrogh/ttsync/internal/domain/record"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
	"github.com/mkrogh/ttsync/internal/platform/querycache"
)

type RankingGroupRepository struct {
	db    dbtx
	cache *querycache.Cache
}

var rankingGroupSelectColumns = []string{"id", "external_id", "name", "name_key"}

func NewRankingGroupRepository(db dbtx) *RankingGroupRepository {
	return &RankingGroupRepository{db: db, cache: querycache.New()}
}

func (r *RankingGroupRepository) FindByExternalID(ctx context.Context, externalID string) (*ranking.Group, error) {
	query, args, err := qb.Select(rankingGroupSelectColumns...).From("ranking_groups").
		Where(qb.Eq("external_id", externalID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select ranking group by external id query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "ranking_groups")
	if err != nil {
		return nil, fmt.Errorf("select ranking group by external id: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := rankingGroupFromRow(rows[0])
	return &found, nil
}

func (r *RankingGroupRepository) FindByNameKey(ctx context.Context, nameKey string) ([]ranking.Group, error) {
	query, args, err := qb.Select(rankingGroupSelectColumns...).From("ranking_groups").
		Where(qb.Eq("name_key", nameKey)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select ranking groups by name key query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "ranking_groups")
	if err != nil {
		return nil, fmt.Errorf("select ranking groups by name key: %w", err)
	}
	out := make([]ranking.Group, 0, len(rows))
	for _, row := range rows {
		out = append(out, rankingGroupFromRow(row))
	}
	return out, nil
}

func (r *RankingGroupRepository) Upsert(ctx context.Context, g ranking.Group) (record.Upserted, error) {
	if err := g.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate ranking group: %w", err)
	}
	up, err := upsertRow(ctx, r.db, "ranking_groups", []string{"name_key"}, rankingGroupInsertModel{
		ExternalID: nullableString(g.ExternalID),
		Name:       g.Name,
		NameKey:    g.NameKey,
	})
	if err != nil {
		return record.Upserted{}, err
	}
	r.cache.Clear()
	return up, nil
}

func (r *RankingGroupRepository) Update(ctx context.Context, g ranking.Group) error {
	if g.ID <= 0 {
		return fmt.Errorf("update ranking group: id is required")
	}
	const query = `UPDATE ranking_groups SET
    name = COALESCE(NULLIF($2, ''), name),
    name_key = COALESCE(NULLIF($3, ''), name_key),
    external_id = COALESCE(NULLIF($4, ''), external_id),
    updated_at = NOW()
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, g.ID, g.Name, g.NameKey, g.ExternalID); err != nil {
		return fmt.Errorf("update ranking group %d: %w", g.ID, err)
	}
	r.cache.Clear()
	return nil
}

func rankingGroupFromRow(row map[string]any) ranking.Group {
	return ranking.Group{
		ID:         rowInt64(row, "id"),
		ExternalID: rowString(row, "external_id"),
		Name:       rowString(row, "name"),
		NameKey:    rowString(row, "name_key"),
	}
}

type rankingGroupInsertModel struct {
	ExternalID *string `db:"external_id"`
	Name       string  `db:"name"`
	NameKey    string  `db:"name_key"`
}
