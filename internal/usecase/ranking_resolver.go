package usecase

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/ranking"
	"github.com/mkrogh/ttsync/internal/platform/normalize"
)

// rankingGroupResolver canonicalizes ranking groups. The portal does not
// always expose a stable group id, so the normalized name key is the
// natural key and the external id is treated as a bonus.
type rankingGroupResolver struct {
	repo    ranking.Repository
	aliases *alias.Set

	byExternalID map[string]int64
	byKey        map[string]int64
}

func newRankingGroupResolver(repo ranking.Repository, aliases *alias.Set) *rankingGroupResolver {
	return &rankingGroupResolver{
		repo:         repo,
		aliases:      aliases,
		byExternalID: make(map[string]int64),
		byKey:        make(map[string]int64),
	}
}

func (r *rankingGroupResolver) Resolve(ctx context.Context, externalID, name string, rep *BatchReport) (int64, error) {
	nameKey := normalize.Key(name)
	if nameKey == "" {
		return 0, errors.Wrap(ErrInvalidInput, "ranking group name is required")
	}
	if externalID != "" {
		if id, ok := r.byExternalID[externalID]; ok {
			return id, nil
		}
	}
	if id, ok := r.byKey[nameKey]; ok {
		return id, nil
	}

	res, err := resolveCanonical(ctx, externalID, name, nameKey, lookups{
		byExternalID: func(ctx context.Context, externalID string) (*candidate, error) {
			found, err := r.repo.FindByExternalID(ctx, externalID)
			if err != nil || found == nil {
				return nil, err
			}
			return &candidate{ID: found.ID, ExternalID: found.ExternalID}, nil
		},
		byNameKey: func(ctx context.Context, nameKey string) ([]candidate, error) {
			found, err := r.repo.FindByNameKey(ctx, nameKey)
			if err != nil {
				return nil, err
			}
			cands := make([]candidate, 0, len(found))
			for _, g := range found {
				cands = append(cands, candidate{ID: g.ID, ExternalID: g.ExternalID})
			}
			return cands, nil
		},
	}, r.aliases)
	if err != nil {
		return 0, errors.Wrapf(err, "resolve ranking group %q", name)
	}
	if res.Ambiguous {
		rep.Ambiguous++
	}

	var id int64
	if res.Matched {
		upd := ranking.Group{ID: res.ID, ExternalID: externalID}
		if res.Via == viaNameKey {
			upd.Name = name
			upd.NameKey = nameKey
		}
		if err := r.repo.Update(ctx, upd); err != nil {
			return 0, errors.Wrapf(err, "update ranking group %d", res.ID)
		}
		id = res.ID
		rep.Updated++
	} else {
		up, err := r.repo.Upsert(ctx, ranking.Group{ExternalID: externalID, Name: name, NameKey: nameKey})
		if err != nil {
			return 0, errors.Wrapf(err, "upsert ranking group %q", name)
		}
		id = up.ID
		rep.record(up)
	}

	if externalID != "" {
		r.byExternalID[externalID] = id
	}
	r.byKey[nameKey] = id
	return id, nil
}
