package usecase

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/club"
	"github.com/mkrogh/ttsync/internal/platform/normalize"
)

// clubResolver canonicalizes club references for every stage in one run.
// Resolved ids are memoized per run so repeated references to the same club
// never touch storage twice.
type clubResolver struct {
	repo    club.Repository
	aliases *alias.Set

	byExternalID map[string]int64
	byKey        map[string]int64
	report       BatchReport
}

func newClubResolver(repo club.Repository, aliases *alias.Set) *clubResolver {
	return &clubResolver{
		repo:         repo,
		aliases:      aliases,
		byExternalID: make(map[string]int64),
		byKey:        make(map[string]int64),
	}
}

// Resolve returns the canonical club id for a raw club name plus optional
// external id, creating the club when nothing matches.
func (r *clubResolver) Resolve(ctx context.Context, externalID, rawName string) (int64, error) {
	nameKey := normalize.Key(rawName)
	if nameKey == "" && externalID == "" {
		return 0, errors.Wrap(ErrInvalidInput, "club name is required")
	}

	if externalID != "" {
		if id, ok := r.byExternalID[externalID]; ok {
			return id, nil
		}
	}
	if id, ok := r.byKey[nameKey]; ok {
		return id, nil
	}

	r.report.Rows++

	res, err := resolveCanonical(ctx, externalID, rawName, nameKey, lookups{
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
			for _, c := range found {
				cands = append(cands, candidate{ID: c.ID, ExternalID: c.ExternalID})
			}
			return cands, nil
		},
	}, r.aliases)
	if err != nil {
		return 0, errors.Wrapf(err, "resolve club %q", rawName)
	}
	if res.Ambiguous {
		r.report.Ambiguous++
	}

	var id int64
	if res.Matched {
		upd := club.Club{ID: res.ID, ExternalID: externalID}
		if res.Via == viaNameKey {
			// Only same-key matches may refresh the display name; an
			// alias or external-id match found a row whose canonical
			// spelling must survive, or its key matches stop working.
			upd.Name = rawName
			upd.NameKey = nameKey
		}
		if err := r.repo.Update(ctx, upd); err != nil {
			return 0, errors.Wrapf(err, "update club %d", res.ID)
		}
		id = res.ID
		r.report.Updated++
	} else {
		up, err := r.repo.Upsert(ctx, club.Club{ExternalID: externalID, Name: rawName, NameKey: nameKey})
		if err != nil {
			return 0, errors.Wrapf(err, "upsert club %q", rawName)
		}
		id = up.ID
		r.report.record(up)
	}

	if externalID != "" {
		r.byExternalID[externalID] = id
	}
	if nameKey != "" {
		r.byKey[nameKey] = id
	}
	return id, nil
}

func (r *clubResolver) Report() BatchReport { return r.report }
