package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkrogh/ttsync/internal/domain/club"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

type ClubRepository struct {
	store *Store
}

func (r *ClubRepository) FindByExternalID(_ context.Context, externalID string) (*club.Club, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range r.store.clubs {
		if c.ExternalID != "" && c.ExternalID == externalID {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *ClubRepository) FindByNameKey(_ context.Context, nameKey string) ([]club.Club, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []club.Club
	for _, c := range r.store.clubs {
		if c.NameKey == nameKey {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ClubRepository) Upsert(_ context.Context, c club.Club) (record.Upserted, error) {
	if err := c.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate club: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Last writer wins on non-key columns, like the SQL primitive.
	for id, existing := range r.store.clubs {
		if existing.NameKey == c.NameKey {
			existing.Name = c.Name
			existing.ExternalID = c.ExternalID
			r.store.clubs[id] = existing
			return record.Upserted{ID: id}, nil
		}
	}

	c.ID = r.store.nextID()
	r.store.clubs[c.ID] = c
	return record.Upserted{ID: c.ID, Inserted: true}, nil
}

func (r *ClubRepository) Update(_ context.Context, c club.Club) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.clubs[c.ID]
	if !ok {
		return fmt.Errorf("update club %d: not found", c.ID)
	}
	if c.Name != "" {
		existing.Name = c.Name
	}
	if c.NameKey != "" {
		existing.NameKey = c.NameKey
	}
	if c.ExternalID != "" {
		existing.ExternalID = c.ExternalID
	}
	r.store.clubs[c.ID] = existing
	return nil
}
