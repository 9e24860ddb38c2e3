package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/domain/transition"
)

type TransitionRepository struct {
	db dbtx
}

func NewTransitionRepository(db dbtx) *TransitionRepository {
	return &TransitionRepository{db: db}
}

func (r *TransitionRepository) Upsert(ctx context.Context, t transition.Transition) (record.Upserted, error) {
	if err := t.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate transition: %w", err)
	}
	return upsertRow(ctx, r.db, "club_transitions", []string{"player_id", "effective_date"}, transitionInsertModel{
		PlayerID:      t.PlayerID,
		FromClubID:    nullableInt64(t.FromClubID),
		ToClubID:      t.ToClubID,
		EffectiveDate: t.EffectiveDate,
	})
}

type transitionInsertModel struct {
	PlayerID      int64     `db:"player_id"`
	FromClubID    *int64    `db:"from_club_id"`
	ToClubID      int64     `db:"to_club_id"`
	EffectiveDate time.Time `db:"effective_date"`
}
