package usecase

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/domain/tournament"
	"github.com/mkrogh/ttsync/internal/platform/normalize"
)

// tournamentResolver canonicalizes tournaments and memoizes external id to
// canonical id for the class and participant stages.
type tournamentResolver struct {
	repo    tournament.Repository
	aliases *alias.Set

	byExternalID map[string]int64
}

func newTournamentResolver(repo tournament.Repository, aliases *alias.Set) *tournamentResolver {
	return &tournamentResolver{
		repo:         repo,
		aliases:      aliases,
		byExternalID: make(map[string]int64),
	}
}

func (r *tournamentResolver) Resolve(ctx context.Context, raw rawdata.Tournament, rep *BatchReport) (int64, error) {
	if id, ok := r.byExternalID[raw.ExternalID]; ok {
		return id, nil
	}

	nameKey := normalize.Key(raw.Name)
	startDate, err := parseDate(raw.StartDate)
	if err != nil {
		return 0, err
	}

	res, err := resolveCanonical(ctx, raw.ExternalID, raw.Name, nameKey, lookups{
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
			for _, t := range found {
				cands = append(cands, candidate{ID: t.ID, ExternalID: t.ExternalID})
			}
			return cands, nil
		},
	}, r.aliases)
	if err != nil {
		return 0, errors.Wrapf(err, "resolve tournament %s", raw.ExternalID)
	}
	if res.Ambiguous {
		rep.Ambiguous++
	}

	t := tournament.Tournament{
		ExternalID: raw.ExternalID,
		Name:       raw.Name,
		NameKey:    nameKey,
		Season:     raw.Season,
		StartDate:  startDate,
	}

	var id int64
	if res.Matched && res.Via != viaExternalID {
		// A listing renamed on the portal can collide with an alias or an
		// older row by name; refresh that row instead of inserting a twin.
		t.ID = res.ID
		if err := r.repo.Update(ctx, t); err != nil {
			return 0, errors.Wrapf(err, "update tournament %d", res.ID)
		}
		id = res.ID
		rep.Updated++
	} else {
		up, err := r.repo.Upsert(ctx, t)
		if err != nil {
			return 0, errors.Wrapf(err, "upsert tournament %s", raw.ExternalID)
		}
		id = up.ID
		rep.record(up)
	}

	r.byExternalID[raw.ExternalID] = id
	return id, nil
}

// IDByExternalID maps a portal tournament id to the canonical row for the
// class and participant stages. The boolean reports whether it exists.
func (r *tournamentResolver) IDByExternalID(ctx context.Context, externalID string) (int64, bool, error) {
	if externalID == "" {
		return 0, false, nil
	}
	if id, ok := r.byExternalID[externalID]; ok {
		return id, true, nil
	}
	found, err := r.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return 0, false, errors.Wrapf(err, "find tournament %s", externalID)
	}
	if found == nil {
		return 0, false, nil
	}
	r.byExternalID[externalID] = found.ID
	return found.ID, true, nil
}
