package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/domain/record"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
)

// RawDataRepository stores scraper output verbatim, one table per source
// shape. Each row keeps its typed columns for the pipeline plus the full
// JSON payload and its hash for auditing; rows are append-only.
type RawDataRepository struct {
	db dbtx
}

func NewRawDataRepository(db dbtx) *RawDataRepository {
	return &RawDataRepository{db: db}
}

func (r *RawDataRepository) NextRunID(ctx context.Context) (int64, error) {
	const query = `INSERT INTO scrape_runs (started_at) VALUES (NOW()) RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, query); err != nil {
		return 0, fmt.Errorf("allocate scrape run id: %w", err)
	}
	return id, nil
}

func encodePayload(row any) (string, string, error) {
	payload, err := sonic.Marshal(row)
	if err != nil {
		return "", "", fmt.Errorf("marshal raw payload: %w", err)
	}
	digest := sha256.Sum256(payload)
	return string(payload), hex.EncodeToString(digest[:]), nil
}

func (r *RawDataRepository) appendRow(ctx context.Context, table string, model any) error {
	query, args, err := qb.InsertModel(table, model)
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", table, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s row: %w", table, err)
	}
	return nil
}

func (r *RawDataRepository) AppendTournaments(ctx context.Context, rows []rawdata.Tournament) error {
	for _, row := range rows {
		payload, hash, err := encodePayload(row)
		if err != nil {
			return err
		}
		model := rawTournamentTableModel{
			rawRowMeta: metaModel(row.Meta, payload, hash),
			ExternalID: row.ExternalID,
			Name:       row.Name,
			Season:     row.Season,
			StartDate:  row.StartDate,
		}
		if err := r.appendRow(ctx, "raw_tournaments", model); err != nil {
			return err
		}
	}
	return nil
}

func (r *RawDataRepository) AppendClasses(ctx context.Context, rows []rawdata.Class) error {
	for _, row := range rows {
		payload, hash, err := encodePayload(row)
		if err != nil {
			return err
		}
		model := rawClassTableModel{
			rawRowMeta:           metaModel(row.Meta, payload, hash),
			TournamentExternalID: row.TournamentExternalID,
			ExternalID:           row.ExternalID,
			Name:                 row.Name,
			Date:                 row.Date,
		}
		if err := r.appendRow(ctx, "raw_classes", model); err != nil {
			return err
		}
	}
	return nil
}

func (r *RawDataRepository) AppendParticipants(ctx context.Context, rows []rawdata.Participant) error {
	for _, row := range rows {
		payload, hash, err := encodePayload(row)
		if err != nil {
			return err
		}
		model := rawParticipantTableModel{
			rawRowMeta:           metaModel(row.Meta, payload, hash),
			TournamentExternalID: row.TournamentExternalID,
			ClassExternalID:      row.ClassExternalID,
			PlayerExternalID:     row.PlayerExternalID,
			PlayerName:           row.PlayerName,
			ClubName:             row.ClubName,
			GroupDescription:     row.GroupDescription,
			StageCode:            row.StageCode,
			Seed:                 row.Seed,
		}
		if err := r.appendRow(ctx, "raw_participants", model); err != nil {
			return err
		}
	}
	return nil
}

func (r *RawDataRepository) AppendLicenses(ctx context.Context, rows []rawdata.License) error {
	for _, row := range rows {
		payload, hash, err := encodePayload(row)
		if err != nil {
			return err
		}
		model := rawLicenseTableModel{
			rawRowMeta:       metaModel(row.Meta, payload, hash),
			PlayerExternalID: row.PlayerExternalID,
			FirstName:        row.FirstName,
			LastName:         row.LastName,
			BirthYear:        row.BirthYear,
			ClubName:         row.ClubName,
			Season:           row.Season,
			Kind:             row.Kind,
			ValidFrom:        row.ValidFrom,
		}
		if err := r.appendRow(ctx, "raw_licenses", model); err != nil {
			return err
		}
	}
	return nil
}

func (r *RawDataRepository) AppendRankingRows(ctx context.Context, rows []rawdata.RankingRow) error {
	for _, row := range rows {
		payload, hash, err := encodePayload(row)
		if err != nil {
			return err
		}
		model := rawRankingTableModel{
			rawRowMeta:       metaModel(row.Meta, payload, hash),
			GroupExternalID:  row.GroupExternalID,
			GroupName:        row.GroupName,
			PlayerExternalID: row.PlayerExternalID,
			FirstName:        row.FirstName,
			LastName:         row.LastName,
			BirthYear:        row.BirthYear,
			ClubName:         row.ClubName,
			Points:           row.Points,
		}
		if err := r.appendRow(ctx, "raw_ranking_rows", model); err != nil {
			return err
		}
	}
	return nil
}

func (r *RawDataRepository) AppendTransitions(ctx context.Context, rows []rawdata.Transition) error {
	for _, row := range rows {
		payload, hash, err := encodePayload(row)
		if err != nil {
			return err
		}
		model := rawTransitionTableModel{
			rawRowMeta:       metaModel(row.Meta, payload, hash),
			PlayerExternalID: row.PlayerExternalID,
			PlayerName:       row.PlayerName,
			FromClubName:     row.FromClubName,
			ToClubName:       row.ToClubName,
			Date:             row.Date,
		}
		if err := r.appendRow(ctx, "raw_transitions", model); err != nil {
			return err
		}
	}
	return nil
}

func (r *RawDataRepository) listRows(ctx context.Context, table string, columns []string, runID int64, dest any) error {
	query, args, err := qb.Select(columns...).From(table).
		Where(qb.Eq("run_id", runID)).
		OrderBy("source", "row_num", "id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build select %s query: %w", table, err)
	}
	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("select %s rows: %w", table, err)
	}
	return nil
}

var rawMetaColumns = []string{"run_id", "source", "row_num"}

func rawColumns(columns ...string) []string {
	return append(append([]string{}, rawMetaColumns...), columns...)
}

func (r *RawDataRepository) ListTournaments(ctx context.Context, runID int64) ([]rawdata.Tournament, error) {
	var rows []rawTournamentTableModel
	cols := rawColumns("external_id", "name", "season", "start_date")
	if err := r.listRows(ctx, "raw_tournaments", cols, runID, &rows); err != nil {
		return nil, err
	}
	out := make([]rawdata.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, rawdata.Tournament{
			Meta:       row.meta(),
			ExternalID: row.ExternalID,
			Name:       row.Name,
			Season:     row.Season,
			StartDate:  row.StartDate,
		})
	}
	return out, nil
}

func (r *RawDataRepository) ListClasses(ctx context.Context, runID int64) ([]rawdata.Class, error) {
	var rows []rawClassTableModel
	cols := rawColumns("tournament_external_id", "external_id", "name", "class_date")
	if err := r.listRows(ctx, "raw_classes", cols, runID, &rows); err != nil {
		return nil, err
	}
	out := make([]rawdata.Class, 0, len(rows))
	for _, row := range rows {
		out = append(out, rawdata.Class{
			Meta:                 row.meta(),
			TournamentExternalID: row.TournamentExternalID,
			ExternalID:           row.ExternalID,
			Name:                 row.Name,
			Date:                 row.Date,
		})
	}
	return out, nil
}

func (r *RawDataRepository) ListParticipants(ctx context.Context, runID int64) ([]rawdata.Participant, error) {
	var rows []rawParticipantTableModel
	cols := rawColumns("tournament_external_id", "class_external_id", "player_external_id",
		"player_name", "club_name", "group_description", "stage_code", "seed")
	if err := r.listRows(ctx, "raw_participants", cols, runID, &rows); err != nil {
		return nil, err
	}
	out := make([]rawdata.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, rawdata.Participant{
			Meta:                 row.meta(),
			TournamentExternalID: row.TournamentExternalID,
			ClassExternalID:      row.ClassExternalID,
			PlayerExternalID:     row.PlayerExternalID,
			PlayerName:           row.PlayerName,
			ClubName:             row.ClubName,
			GroupDescription:     row.GroupDescription,
			StageCode:            row.StageCode,
			Seed:                 row.Seed,
		})
	}
	return out, nil
}

func (r *RawDataRepository) ListLicenses(ctx context.Context, runID int64) ([]rawdata.License, error) {
	var rows []rawLicenseTableModel
	cols := rawColumns("player_external_id", "first_name", "last_name", "birth_year",
		"club_name", "season", "kind", "valid_from")
	if err := r.listRows(ctx, "raw_licenses", cols, runID, &rows); err != nil {
		return nil, err
	}
	out := make([]rawdata.License, 0, len(rows))
	for _, row := range rows {
		out = append(out, rawdata.License{
			Meta:             row.meta(),
			PlayerExternalID: row.PlayerExternalID,
			FirstName:        row.FirstName,
			LastName:         row.LastName,
			BirthYear:        row.BirthYear,
			ClubName:         row.ClubName,
			Season:           row.Season,
			Kind:             row.Kind,
			ValidFrom:        row.ValidFrom,
		})
	}
	return out, nil
}

func (r *RawDataRepository) ListRankingRows(ctx context.Context, runID int64) ([]rawdata.RankingRow, error) {
	var rows []rawRankingTableModel
	cols := rawColumns("group_external_id", "group_name", "player_external_id",
		"first_name", "last_name", "birth_year", "club_name", "points")
	if err := r.listRows(ctx, "raw_ranking_rows", cols, runID, &rows); err != nil {
		return nil, err
	}
	out := make([]rawdata.RankingRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, rawdata.RankingRow{
			Meta:             row.meta(),
			GroupExternalID:  row.GroupExternalID,
			GroupName:        row.GroupName,
			PlayerExternalID: row.PlayerExternalID,
			FirstName:        row.FirstName,
			LastName:         row.LastName,
			BirthYear:        row.BirthYear,
			ClubName:         row.ClubName,
			Points:           row.Points,
		})
	}
	return out, nil
}

func (r *RawDataRepository) ListTransitions(ctx context.Context, runID int64) ([]rawdata.Transition, error) {
	var rows []rawTransitionTableModel
	cols := rawColumns("player_external_id", "player_name", "from_club_name", "to_club_name", "transition_date")
	if err := r.listRows(ctx, "raw_transitions", cols, runID, &rows); err != nil {
		return nil, err
	}
	out := make([]rawdata.Transition, 0, len(rows))
	for _, row := range rows {
		out = append(out, rawdata.Transition{
			Meta:             row.meta(),
			PlayerExternalID: row.PlayerExternalID,
			PlayerName:       row.PlayerName,
			FromClubName:     row.FromClubName,
			ToClubName:       row.ToClubName,
			Date:             row.Date,
		})
	}
	return out, nil
}

// rawRowMeta is embedded in every raw table model; Payload and PayloadHash
// are insert-only and never read back. Payload is kept as a string so the
// driver sends it in text form for the jsonb column.
type rawRowMeta struct {
	RunID       int64  `db:"run_id"`
	Source      string `db:"source"`
	RowNum      int    `db:"row_num"`
	Payload     string `db:"payload"`
	PayloadHash string `db:"payload_hash"`
}

func metaModel(m record.Meta, payload, hash string) rawRowMeta {
	return rawRowMeta{
		RunID:       m.RunID,
		Source:      string(m.Source),
		RowNum:      m.RowNum,
		Payload:     payload,
		PayloadHash: hash,
	}
}

func (m rawRowMeta) meta() record.Meta {
	return record.Meta{RunID: m.RunID, Source: record.Source(m.Source), RowNum: m.RowNum}
}

type rawTournamentTableModel struct {
	rawRowMeta
	ExternalID string `db:"external_id"`
	Name       string `db:"name"`
	Season     string `db:"season"`
	StartDate  string `db:"start_date"`
}

type rawClassTableModel struct {
	rawRowMeta
	TournamentExternalID string `db:"tournament_external_id"`
	ExternalID           string `db:"external_id"`
	Name                 string `db:"name"`
	Date                 string `db:"class_date"`
}

type rawParticipantTableModel struct {
	rawRowMeta
	TournamentExternalID string `db:"tournament_external_id"`
	ClassExternalID      string `db:"class_external_id"`
	PlayerExternalID     string `db:"player_external_id"`
	PlayerName           string `db:"player_name"`
	ClubName             string `db:"club_name"`
	GroupDescription     string `db:"group_description"`
	StageCode            string `db:"stage_code"`
	Seed                 string `db:"seed"`
}

type rawLicenseTableModel struct {
	rawRowMeta
	PlayerExternalID string `db:"player_external_id"`
	FirstName        string `db:"first_name"`
	LastName         string `db:"last_name"`
	BirthYear        string `db:"birth_year"`
	ClubName         string `db:"club_name"`
	Season           string `db:"season"`
	Kind             string `db:"kind"`
	ValidFrom        string `db:"valid_from"`
}

type rawRankingTableModel struct {
	rawRowMeta
	GroupExternalID  string `db:"group_external_id"`
	GroupName        string `db:"group_name"`
	PlayerExternalID string `db:"player_external_id"`
	FirstName        string `db:"first_name"`
	LastName         string `db:"last_name"`
	BirthYear        string `db:"birth_year"`
	ClubName         string `db:"club_name"`
	Points           string `db:"points"`
}

type rawTransitionTableModel struct {
	rawRowMeta
	PlayerExternalID string `db:"player_external_id"`
	PlayerName       string `db:"player_name"`
	FromClubName     string `db:"from_club_name"`
	ToClubName       string `db:"to_club_name"`
	Date             string `db:"transition_date"`
}
