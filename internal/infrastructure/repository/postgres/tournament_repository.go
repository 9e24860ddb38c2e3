package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/domain/tournament"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
	"github.com/mkrogh/ttsync/internal/platform/querycache"
)

type TournamentRepository struct {
	db    dbtx
	cache *querycache.Cache
}

var tournamentSelectColumns = []string{
	"id",
	"external_id",
	"name",
	"name_key",
	"season",
	"start_date",
}

func NewTournamentRepository(db dbtx) *TournamentRepository {
	return &TournamentRepository{db: db, cache: querycache.New()}
}

func (r *TournamentRepository) FindByExternalID(ctx context.Context, externalID string) (*tournament.Tournament, error) {
	query, args, err := qb.Select(tournamentSelectColumns...).From("tournaments").
		Where(qb.Eq("external_id", externalID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tournament by external id query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "tournaments")
	if err != nil {
		return nil, fmt.Errorf("select tournament by external id: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := tournamentFromRow(rows[0])
	return &found, nil
}

func (r *TournamentRepository) FindByNameKey(ctx context.Context, nameKey string) ([]tournament.Tournament, error) {
	query, args, err := qb.Select(tournamentSelectColumns...).From("tournaments").
		Where(qb.Eq("name_key", nameKey)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tournaments by name key query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "tournaments")
	if err != nil {
		return nil, fmt.Errorf("select tournaments by name key: %w", err)
	}
	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournamentFromRow(row))
	}
	return out, nil
}

func (r *TournamentRepository) Upsert(ctx context.Context, t tournament.Tournament) (record.Upserted, error) {
	if err := t.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate tournament: %w", err)
	}
	up, err := upsertRow(ctx, r.db, "tournaments", []string{"external_id"}, tournamentInsertModel{
		ExternalID: t.ExternalID,
		Name:       t.Name,
		NameKey:    t.NameKey,
		Season:     nullableString(t.Season),
		StartDate:  t.StartDate,
	})
	if err != nil {
		return record.Upserted{}, err
	}
	r.cache.Clear()
	return up, nil
}

func (r *TournamentRepository) Update(ctx context.Context, t tournament.Tournament) error {
	if t.ID <= 0 {
		return fmt.Errorf("update tournament: id is required")
	}
	const query = `UPDATE tournaments SET
    name = COALESCE(NULLIF($2, ''), name),
    name_key = COALESCE(NULLIF($3, ''), name_key),
    season = COALESCE(NULLIF($4, ''), season),
    start_date = COALESCE($5, start_date),
    updated_at = NOW()
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.NameKey, t.Season, t.StartDate); err != nil {
		return fmt.Errorf("update tournament %d: %w", t.ID, err)
	}
	r.cache.Clear()
	return nil
}

func tournamentFromRow(row map[string]any) tournament.Tournament {
	return tournament.Tournament{
		ID:         rowInt64(row, "id"),
		ExternalID: rowString(row, "external_id"),
		Name:       rowString(row, "name"),
		NameKey:    rowString(row, "name_key"),
		Season:     rowString(row, "season"),
		StartDate:  rowTime(row, "start_date"),
	}
}

type tournamentInsertModel struct {
	ExternalID string     `db:"external_id"`
	Name       string     `db:"name"`
	NameKey    string     `db:"name_key"`
	Season     *string    `db:"season"`
	StartDate  *time.Time `db:"start_date"`
}

type ClassRepository struct {
	db    dbtx
	cache *querycache.Cache
}

var classSelectColumns = []string{
	"id",
	"tournament_id",
	"external_id",
	"name",
	"name_key",
	"class_date",
}

func NewClassRepository(db dbtx) *ClassRepository {
	return &ClassRepository{db: db, cache: querycache.New()}
}

func (r *ClassRepository) FindByNaturalKey(ctx context.Context, tournamentID int64, externalID string) (*tournament.Class, error) {
	query, args, err := qb.Select(classSelectColumns...).From("classes").
		Where(
			qb.Eq("tournament_id", tournamentID),
			qb.Eq("external_id", externalID),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select class query: %w", err)
	}

	rows, err := r.cache.Rows(ctx, r.db, query, args, "classes")
	if err != nil {
		return nil, fmt.Errorf("select class: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := classFromRow(rows[0])
	return &found, nil
}

func (r *ClassRepository) Upsert(ctx context.Context, c tournament.Class) (record.Upserted, error) {
	if err := c.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate class: %w", err)
	}
	up, err := upsertRow(ctx, r.db, "classes", []string{"tournament_id", "external_id"}, classInsertModel{
		TournamentID: c.TournamentID,
		ExternalID:   c.ExternalID,
		Name:         c.Name,
		NameKey:      c.NameKey,
		Date:         c.Date,
	})
	if err != nil {
		return record.Upserted{}, err
	}
	r.cache.Clear()
	return up, nil
}

func classFromRow(row map[string]any) tournament.Class {
	return tournament.Class{
		ID:           rowInt64(row, "id"),
		TournamentID: rowInt64(row, "tournament_id"),
		ExternalID:   rowString(row, "external_id"),
		Name:         rowString(row, "name"),
		NameKey:      rowString(row, "name_key"),
		Date:         rowTime(row, "class_date"),
	}
}

type classInsertModel struct {
	TournamentID int64      `db:"tournament_id"`
	ExternalID   string     `db:"external_id"`
	Name         string     `db:"name"`
	NameKey      string     `db:"name_key"`
	Date         *time.Time `db:"class_date"`
}

type StageRepository struct {
	db dbtx
}

func NewStageRepository(db dbtx) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) ListAll(ctx context.Context) ([]tournament.Stage, error) {
	query, args, err := qb.Select("id", "code", "name").From("stages").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select stages query: %w", err)
	}

	var rows []stageTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stages: %w", err)
	}
	out := make([]tournament.Stage, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournament.Stage{ID: row.ID, Code: row.Code, Name: row.Name})
	}
	return out, nil
}

type stageTableModel struct {
	ID   int64  `db:"id"`
	Code string `db:"code"`
	Name string `db:"name"`
}
