package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkrogh/ttsync/internal/domain/participant"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

type ParticipantRepository struct {
	store *Store
}

func (r *ParticipantRepository) Upsert(_ context.Context, p participant.Participant) (record.Upserted, error) {
	if err := p.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate participant: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.participants {
		if existing.ClassID == p.ClassID && existing.PlayerID == p.PlayerID {
			p.ID = id
			r.store.participants[id] = p
			return record.Upserted{ID: id}, nil
		}
	}

	p.ID = r.store.nextID()
	r.store.participants[p.ID] = p
	return record.Upserted{ID: p.ID, Inserted: true}, nil
}

func (r *ParticipantRepository) UpsertGroup(_ context.Context, g participant.Group) (record.Upserted, error) {
	if err := g.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate class group: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.groups {
		if existing.ClassID == g.ClassID && existing.Description == g.Description {
			g.ID = id
			r.store.groups[id] = g
			return record.Upserted{ID: id}, nil
		}
	}

	g.ID = r.store.nextID()
	r.store.groups[g.ID] = g
	return record.Upserted{ID: g.ID, Inserted: true}, nil
}

func (r *ParticipantRepository) ReplaceGroupMembers(_ context.Context, groupID int64, participantIDs []int64) error {
	if groupID <= 0 {
		return fmt.Errorf("replace group members: group id is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	members := make(map[int64]bool, len(participantIDs))
	for _, id := range participantIDs {
		members[id] = true
	}
	r.store.groupMembers[groupID] = members
	return nil
}

func (r *ParticipantRepository) ListGroupMembers(_ context.Context, groupID int64) ([]int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	members := r.store.groupMembers[groupID]
	out := make([]int64, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
