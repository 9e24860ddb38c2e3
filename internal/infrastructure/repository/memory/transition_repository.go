package memory

import (
	"context"
	"fmt"

	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/domain/transition"
)

type TransitionRepository struct {
	store *Store
}

func (r *TransitionRepository) Upsert(_ context.Context, t transition.Transition) (record.Upserted, error) {
	if err := t.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate transition: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.transitions {
		if existing.PlayerID == t.PlayerID && existing.EffectiveDate.Equal(t.EffectiveDate) {
			t.ID = id
			r.store.transitions[id] = t
			return record.Upserted{ID: id}, nil
		}
	}

	t.ID = r.store.nextID()
	r.store.transitions[t.ID] = t
	return record.Upserted{ID: t.ID, Inserted: true}, nil
}
