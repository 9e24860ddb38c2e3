package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mkrogh/ttsync/internal/domain/ranking"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

type RankingGroupRepository struct {
	store *Store
}

func (r *RankingGroupRepository) FindByExternalID(_ context.Context, externalID string) (*ranking.Group, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, g := range r.store.rankingGroups {
		if g.ExternalID != "" && g.ExternalID == externalID {
			found := g
			return &found, nil
		}
	}
	return nil, nil
}

func (r *RankingGroupRepository) FindByNameKey(_ context.Context, nameKey string) ([]ranking.Group, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []ranking.Group
	for _, g := range r.store.rankingGroups {
		if g.NameKey == nameKey {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RankingGroupRepository) Upsert(_ context.Context, g ranking.Group) (record.Upserted, error) {
	if err := g.Validate(); err != nil {
		return record.Upserted{}, fmt.Errorf("validate ranking group: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.rankingGroups {
		if existing.NameKey == g.NameKey {
			g.ID = id
			r.store.rankingGroups[id] = g
			return record.Upserted{ID: id}, nil
		}
	}

	g.ID = r.store.nextID()
	r.store.rankingGroups[g.ID] = g
	return record.Upserted{ID: g.ID, Inserted: true}, nil
}

func (r *RankingGroupRepository) Update(_ context.Context, g ranking.Group) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.rankingGroups[g.ID]
	if !ok {
		return fmt.Errorf("update ranking group %d: not found", g.ID)
	}
	if g.Name != "" {
		existing.Name = g.Name
	}
	if g.NameKey != "" {
		existing.NameKey = g.NameKey
	}
	if g.ExternalID != "" {
		existing.ExternalID = g.ExternalID
	}
	r.store.rankingGroups[g.ID] = existing
	return nil
}
