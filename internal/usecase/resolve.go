package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

var validate = validator.New()

const (
	viaExternalID = "external_id"
	viaNameKey    = "name_key"
	viaAlias      = "alias"
)

// candidate is a canonical row viewed through the resolution funnel: its id
// plus whatever external id it already carries.
type candidate struct {
	ID         int64
	ExternalID string
}

// lookups adapts one entity kind's repository to the shared funnel.
type lookups struct {
	byExternalID func(ctx context.Context, externalID string) (*candidate, error)
	byNameKey    func(ctx context.Context, nameKey string) ([]candidate, error)
}

type resolution struct {
	ID        int64
	Matched   bool
	Ambiguous bool
	Via       string
}

// resolveCanonical runs the strict fallback order shared by every entity
// kind: external id when the raw row carries one, then the normalized name
// key against canonical rows, then the curated alias set (verbatim raw name
// first, normalized key second). No match leaves Matched false and the
// caller inserts.
func resolveCanonical(ctx context.Context, externalID, rawName, nameKey string, l lookups, aliases *alias.Set) (resolution, error) {
	if externalID != "" && l.byExternalID != nil {
		found, err := l.byExternalID(ctx, externalID)
		if err != nil {
			return resolution{}, err
		}
		if found != nil {
			return resolution{ID: found.ID, Matched: true, Via: viaExternalID}, nil
		}
	}

	if nameKey != "" && l.byNameKey != nil {
		cands, err := l.byNameKey(ctx, nameKey)
		if err != nil {
			return resolution{}, err
		}
		if len(cands) > 0 {
			picked, ambiguous := pickCandidate(cands)
			return resolution{ID: picked.ID, Matched: true, Ambiguous: ambiguous, Via: viaNameKey}, nil
		}
	}

	if rawName != "" {
		if id, ok := aliases.Lookup(rawName); ok {
			return resolution{ID: id, Matched: true, Via: viaAlias}, nil
		}
	}

	return resolution{}, nil
}

// pickCandidate breaks ties among same-key candidates: exactly one carrying
// an external id wins outright; otherwise the earliest created row (the
// repositories return lowest id first) is taken and the match is flagged
// ambiguous.
func pickCandidate(cands []candidate) (candidate, bool) {
	firstWithID := -1
	withID := 0
	for i, c := range cands {
		if c.ExternalID != "" {
			if firstWithID < 0 {
				firstWithID = i
			}
			withID++
		}
	}
	if withID == 1 {
		return cands[firstWithID], false
	}
	if firstWithID >= 0 {
		return cands[firstWithID], true
	}
	return cands[0], len(cands) > 1
}

// dedupeByExternalID collapses raw rows sharing an external id, keeping the
// row whose source outranks the others (lowest record.Source priority) and
// breaking ties by arrival order. Rows without an external id pass through
// untouched; relative order is otherwise preserved.
func dedupeByExternalID[T any](rows []T, externalID func(T) string, meta func(T) record.Meta) []T {
	kept := make([]T, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		id := externalID(row)
		if id == "" {
			kept = append(kept, row)
			continue
		}
		at, seen := index[id]
		if !seen {
			index[id] = len(kept)
			kept = append(kept, row)
			continue
		}
		if meta(row).Source.Priority() < meta(kept[at]).Source.Priority() {
			kept[at] = row
		}
	}
	return kept
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02.01.2006", "02/01/2006"}

// parseDate accepts the handful of date spellings the portal emits. Empty
// input is not an error; it parses to nil.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errInvalidf("unparseable date %q", raw)
}

func parseBirthYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if year, err := strconv.Atoi(raw); err == nil {
		if year < 1900 || year > time.Now().Year() {
			return 0, errInvalidf("birth year %d out of range", year)
		}
		return year, nil
	}
	// Some exports spell a full birth date instead of the year.
	if t, err := parseDate(raw); err == nil && t != nil {
		return t.Year(), nil
	}
	return 0, errInvalidf("unparseable birth year %q", raw)
}

func parseSeed(raw string) int {
	seed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || seed < 0 {
		return 0
	}
	return seed
}

// splitName splits a free-text full name into first name and surname on the
// first space; everything after the given name is surname.
func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	first, last, found := strings.Cut(full, " ")
	if !found {
		return full, ""
	}
	return first, strings.TrimSpace(last)
}

func errInvalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}
