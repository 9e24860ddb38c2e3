package postgres

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/participant"
	"github.com/mkrogh/ttsync/internal/domain/record"
	qb "github.com/mkrogh/ttsync/internal/platform/querybuilder"
)

type ParticipantRepository struct {
	db dbtx
}

func NewParticipantRepository(db dbtx) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Upsert(ctx context.Context, p participant.Participant) (record.Upserted, error) {
	if err := p.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate participant: %w", err)
	}
	return upsertRow(ctx, r.db, "participants", []string{"class_id", "player_id"}, participantInsertModel{
		ClassID:  p.ClassID,
		PlayerID: p.PlayerID,
		ClubID:   nullableInt64(p.ClubID),
		Seed:     p.Seed,
	})
}

func (r *ParticipantRepository) UpsertGroup(ctx context.Context, g participant.Group) (record.Upserted, error) {
	if err := g.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate class group: %w", err)
	}
	return upsertRow(ctx, r.db, "class_groups", []string{"class_id", "description"}, classGroupInsertModel{
		ClassID:     g.ClassID,
		Description: g.Description,
		StageID:     nullableInt64(g.StageID),
	})
}

func (r *ParticipantRepository) ReplaceGroupMembers(ctx context.Context, groupID int64, participantIDs []int64) error {
	if groupID <= 0 {
		return fmt.Errorf("replace group members: group id is required")
	}

	query, args, err := qb.DeleteFrom("class_group_members").
		Where(qb.Eq("class_group_id", groupID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete group members query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete group members: %w", err)
	}

	for _, participantID := range participantIDs {
		err := insertIgnoreRow(ctx, r.db, "class_group_members",
			[]string{"class_group_id", "participant_id"},
			classGroupMemberInsertModel{ClassGroupID: groupID, ParticipantID: participantID})
		if err != nil {
			return fmt.Errorf("insert member %d of group %d: %w", participantID, groupID, err)
		}
	}
	return nil
}

func (r *ParticipantRepository) ListGroupMembers(ctx context.Context, groupID int64) ([]int64, error) {
	query, args, err := qb.Select("participant_id").From("class_group_members").
		Where(qb.Eq("class_group_id", groupID)).
		OrderBy("participant_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select group members query: %w", err)
	}

	var out []int64
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select group members: %w", err)
	}
	return out, nil
}

type participantInsertModel struct {
	ClassID  int64  `db:"class_id"`
	PlayerID int64  `db:"player_id"`
	ClubID   *int64 `db:"club_id"`
	Seed     int    `db:"seed"`
}

type classGroupInsertModel struct {
	ClassID     int64  `db:"class_id"`
	Description string `db:"description"`
	StageID     *int64 `db:"stage_id"`
}

type classGroupMemberInsertModel struct {
	ClassGroupID  int64 `db:"class_group_id"`
	ParticipantID int64 `db:"participant_id"`
}
