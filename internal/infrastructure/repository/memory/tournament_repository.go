package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/domain/tournament"
)

type TournamentRepository struct {
	store *Store
}

func (r *TournamentRepository) FindByExternalID(_ context.Context, externalID string) (*tournament.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, t := range r.store.tournaments {
		if t.ExternalID != "" && t.ExternalID == externalID {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

func (r *TournamentRepository) FindByNameKey(_ context.Context, nameKey string) ([]tournament.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []tournament.Tournament
	for _, t := range r.store.tournaments {
		if t.NameKey == nameKey {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TournamentRepository) Upsert(_ context.Context, t tournament.Tournament) (record.Upserted, error) {
	if err := t.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate tournament: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.tournaments {
		if existing.ExternalID == t.ExternalID {
			t.ID = id
			r.store.tournaments[id] = t
			return record.Upserted{ID: id}, nil
		}
	}

	t.ID = r.store.nextID()
	r.store.tournaments[t.ID] = t
	return record.Upserted{ID: t.ID, Inserted: true}, nil
}

func (r *TournamentRepository) Update(_ context.Context, t tournament.Tournament) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.tournaments[t.ID]
	if !ok {
		return fmt.Errorf("update tournament %d: not found", t.ID)
	}
	if t.Name != "" {
		existing.Name = t.Name
	}
	if t.NameKey != "" {
		existing.NameKey = t.NameKey
	}
	if t.Season != "" {
		existing.Season = t.Season
	}
	if t.StartDate != nil {
		existing.StartDate = t.StartDate
	}
	r.store.tournaments[t.ID] = existing
	return nil
}

type ClassRepository struct {
	store *Store
}

func (r *ClassRepository) FindByNaturalKey(_ context.Context, tournamentID int64, externalID string) (*tournament.Class, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range r.store.classes {
		if c.TournamentID == tournamentID && c.ExternalID == externalID {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *ClassRepository) Upsert(_ context.Context, c tournament.Class) (record.Upserted, error) {
	if err := c.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate class: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.classes {
		if existing.TournamentID == c.TournamentID && existing.ExternalID == c.ExternalID {
			c.ID = id
			r.store.classes[id] = c
			return record.Upserted{ID: id}, nil
		}
	}

	c.ID = r.store.nextID()
	r.store.classes[c.ID] = c
	return record.Upserted{ID: c.ID, Inserted: true}, nil
}

type StageRepository struct {
	store *Store
}

func (r *StageRepository) ListAll(_ context.Context) ([]tournament.Stage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]tournament.Stage{}, r.store.stages...), nil
}
