package postgres

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/player"
	"github.com/mkrogh/ttsync/internal/domain/record"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
	"github.com/mkrogh/ttsync/internal/platform/querycache"
)

type PlayerRepository struct {
	db    dbtx
	cache *querycache.Cache
}

var playerSelectColumns = []string{
	"id",
	"external_id",
	"first_name",
	"last_name",
	"birth_year",
	"club_id",
	"name_key",
}

func NewPlayerRepository(db dbtx) *PlayerRepository {
	return &PlayerRepository{db: db, cache: querycache.New()}
}

func (r *PlayerRepository) FindByExternalID(ctx context.Context, externalID string) (*player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("external_id", externalID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player by external id query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "players")
	if err != nil {
		return nil, fmt.Errorf("select player by external id: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := playerFromRow(rows[0])
	return &found, nil
}

func (r *PlayerRepository) FindByNameKey(ctx context.Context, nameKey string) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("name_key", nameKey)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by name key query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "players")
	if err != nil {
		return nil, fmt.Errorf("select players by name key: %w", err)
	}
	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p player.Player) (record.Upserted, error) {
	if err := p.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate player: %w", err)
	}
	// players.external_id is unique through a partial index; the conflict
	// target has to repeat the predicate or postgres rejects the statement.
	up, err := upsertRowWhere(ctx, r.db, "players", []string{"external_id"}, "external_id IS NOT NULL", playerInsertModel{
		ExternalID: nullableString(p.ExternalID),
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		BirthYear:  p.BirthYear,
		ClubID:     nullableInt64(p.ClubID),
		NameKey:    p.NameKey,
	})
	if err != nil {
		return record.Upserted{}, err
	}
	r.cache.Clear()
	return up, nil
}

func (r *PlayerRepository) Insert(ctx context.Context, p player.Player) (int64, error) {
	if p.NameKey == "" {
		return 0, fmt.Errorf("insert player: name key is required")
	}
	const query = `INSERT INTO players (first_name, last_name, birth_year, club_id, name_key)
VALUES ($1, $2, $3, NULLIF($4, 0), $5)
RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, p.FirstName, p.LastName, p.BirthYear, p.ClubID, p.NameKey); err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	r.cache.Clear()
	return id, nil
}

func (r *PlayerRepository) Update(ctx context.Context, p player.Player) error {
	if p.ID <= 0 {
		return fmt.Errorf("update player: id is required")
	}
	// Backfills the external id onto a row first seen through a sign-up
	// and lets the license register refresh identity fields; empty or zero
	// incoming fields keep the stored values.
	const query = `UPDATE players SET
    external_id = COALESCE(NULLIF($2, ''), external_id),
    first_name = COALESCE(NULLIF($3, ''), first_name),
    last_name = COALESCE(NULLIF($4, ''), last_name),
    birth_year = CASE WHEN $5 > 0 THEN $5 ELSE birth_year END,
    club_id = COALESCE(NULLIF($6, 0), club_id),
    name_key = COALESCE(NULLIF($7, ''), name_key),
    updated_at = NOW()
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.ExternalID, p.FirstName, p.LastName, p.BirthYear, p.ClubID, p.NameKey); err != nil {
		return fmt.Errorf("update player %d: %w", p.ID, err)
	}
	r.cache.Clear()
	return nil
}

func playerFromRow(row map[string]any) player.Player {
	return player.Player{
		ID:         rowInt64(row, "id"),
		ExternalID: rowString(row, "external_id"),
		FirstName:  rowString(row, "first_name"),
		LastName:   rowString(row, "last_name"),
		BirthYear:  rowInt(row, "birth_year"),
		ClubID:     rowInt64(row, "club_id"),
		NameKey:    rowString(row, "name_key"),
	}
}

type playerInsertModel struct {
	ExternalID *string `db:"external_id"`
	FirstName  string  `db:"first_name"`
	LastName   string  `db:"last_name"`
	BirthYear  int     `db:"birth_year"`
	ClubID     *int64  `db:"club_id"`
	NameKey    string  `db:"name_key"`
}
