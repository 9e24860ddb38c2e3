package usecase

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/player"
	"github.com/mkrogh/ttsync/internal/domain/record"
	"github.com/mkrogh/ttsync/internal/platform/normalize"
)

// playerIdentity is one source's claim about who a player is, carrying its
// provenance so higher-priority sources win the dedupe.
type playerIdentity struct {
	ExternalID string
	FirstName  string
	LastName   string
	BirthYear  int
	ClubID     int64
	Meta       record.Meta
}

func (p playerIdentity) fullName() string {
	return p.FirstName + " " + p.LastName
}

// playerResolver canonicalizes players across the license, ranking and
// tournament stages of one run, memoizing resolved ids by external id and
// by normalized full-name key.
type playerResolver struct {
	repo    player.Repository
	aliases *alias.Set

	byExternalID map[string]int64
	byKey        map[string]int64
	report       BatchReport
}

func newPlayerResolver(repo player.Repository, aliases *alias.Set) *playerResolver {
	return &playerResolver{
		repo:         repo,
		aliases:      aliases,
		byExternalID: make(map[string]int64),
		byKey:        make(map[string]int64),
	}
}

func (r *playerResolver) playerLookups() lookups {
	return lookups{
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
			for _, p := range found {
				cands = append(cands, candidate{ID: p.ID, ExternalID: p.ExternalID})
			}
			return cands, nil
		},
	}
}

// Resolve canonicalizes a fully identified player (external id plus names
// and birth year, from the license or ranking exports). A name-key or alias
// match backfills the external id onto the existing row instead of creating
// a sibling.
func (r *playerResolver) Resolve(ctx context.Context, id playerIdentity) (int64, error) {
	if id.ExternalID == "" {
		return 0, errors.Wrap(ErrInvalidInput, "player external id is required")
	}
	if memo, ok := r.byExternalID[id.ExternalID]; ok {
		return memo, nil
	}

	r.report.Rows++
	nameKey := normalize.Key(id.fullName())

	res, err := resolveCanonical(ctx, id.ExternalID, id.fullName(), nameKey, r.playerLookups(), r.aliases)
	if err != nil {
		return 0, errors.Wrapf(err, "resolve player %s", id.ExternalID)
	}
	if res.Ambiguous {
		r.report.Ambiguous++
	}

	p := player.Player{
		ExternalID: id.ExternalID,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		BirthYear:  id.BirthYear,
		ClubID:     id.ClubID,
		NameKey:    nameKey,
	}

	var playerID int64
	if res.Matched && res.Via != viaExternalID {
		// Row exists under another (or no) external id; update in place so
		// the id is backfilled rather than a sibling row created.
		p.ID = res.ID
		if err := r.repo.Update(ctx, p); err != nil {
			return 0, errors.Wrapf(err, "update player %d", res.ID)
		}
		playerID = res.ID
		r.report.Updated++
	} else {
		up, err := r.repo.Upsert(ctx, p)
		if err != nil {
			return 0, errors.Wrapf(err, "upsert player %s", id.ExternalID)
		}
		playerID = up.ID
		r.report.record(up)
	}

	r.byExternalID[id.ExternalID] = playerID
	if nameKey != "" {
		r.byKey[nameKey] = playerID
	}
	return playerID, nil
}

// ResolveByName handles tournament sign-ups carrying only a free-text name:
// match by normalized key or alias, insert a bare player when absent. It
// never overwrites identity fields on a match; the license register owns
// those.
func (r *playerResolver) ResolveByName(ctx context.Context, fullName string, clubID int64) (int64, error) {
	nameKey := normalize.Key(fullName)
	if nameKey == "" {
		return 0, errors.Wrap(ErrInvalidInput, "player name is required")
	}
	if memo, ok := r.byKey[nameKey]; ok {
		return memo, nil
	}

	r.report.Rows++

	res, err := resolveCanonical(ctx, "", fullName, nameKey, r.playerLookups(), r.aliases)
	if err != nil {
		return 0, errors.Wrapf(err, "resolve player %q", fullName)
	}
	if res.Ambiguous {
		r.report.Ambiguous++
	}

	var playerID int64
	if res.Matched {
		playerID = res.ID
	} else {
		first, last := splitName(fullName)
		playerID, err = r.repo.Insert(ctx, player.Player{
			FirstName: first,
			LastName:  last,
			ClubID:    clubID,
			NameKey:   nameKey,
		})
		if err != nil {
			return 0, errors.Wrapf(err, "insert player %q", fullName)
		}
		r.report.Inserted++
	}

	r.byKey[nameKey] = playerID
	return playerID, nil
}

// IDByExternalID is the read-only funnel entry for stages that reference a
// player by id without carrying identity fields (transitions).
func (r *playerResolver) IDByExternalID(ctx context.Context, externalID string) (int64, bool, error) {
	if externalID == "" {
		return 0, false, nil
	}
	if memo, ok := r.byExternalID[externalID]; ok {
		return memo, true, nil
	}
	found, err := r.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return 0, false, errors.Wrapf(err, "find player %s", externalID)
	}
	if found == nil {
		return 0, false, nil
	}
	r.byExternalID[externalID] = found.ID
	return found.ID, true, nil
}

func (r *playerResolver) Report() BatchReport { return r.report }
