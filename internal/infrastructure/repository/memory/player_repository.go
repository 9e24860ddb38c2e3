package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkrogh/ttsync/internal/domain/player"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

type PlayerRepository struct {
	store *Store
}

func (r *PlayerRepository) FindByExternalID(_ context.Context, externalID string) (*player.Player, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.players {
		if p.ExternalID != "" && p.ExternalID == externalID {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r *PlayerRepository) FindByNameKey(_ context.Context, nameKey string) ([]player.Player, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []player.Player
	for _, p := range r.store.players {
		if p.NameKey == nameKey {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) Upsert(_ context.Context, p player.Player) (record.Upserted, error) {
	if err := p.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate player: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.players {
		if existing.ExternalID == p.ExternalID {
			p.ID = id
			r.store.players[id] = p
			return record.Upserted{ID: id}, nil
		}
	}

	p.ID = r.store.nextID()
	r.store.players[p.ID] = p
	return record.Upserted{ID: p.ID, Inserted: true}, nil
}

func (r *PlayerRepository) Insert(_ context.Context, p player.Player) (int64, error) {
	if p.NameKey == "" {
		return 0, fmt.Errorf("insert player: name key is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p.ID = r.store.nextID()
	p.ExternalID = ""
	r.store.players[p.ID] = p
	return p.ID, nil
}

func (r *PlayerRepository) Update(_ context.Context, p player.Player) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.players[p.ID]
	if !ok {
		return fmt.Errorf("update player %d: not found", p.ID)
	}
	if p.ExternalID != "" {
		existing.ExternalID = p.ExternalID
	}
	if p.FirstName != "" {
		existing.FirstName = p.FirstName
	}
	if p.LastName != "" {
		existing.LastName = p.LastName
	}
	if p.BirthYear > 0 {
		existing.BirthYear = p.BirthYear
	}
	if p.ClubID > 0 {
		existing.ClubID = p.ClubID
	}
	if p.NameKey != "" {
		existing.NameKey = p.NameKey
	}
	r.store.players[p.ID] = existing
	return nil
}
