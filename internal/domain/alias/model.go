// Package alias holds the manually curated fallback mapping from alternate
// raw names to canonical entity ids. The table is maintained out-of-band;
// the pipeline only loads it once per run and consults it after normalized
// key matching fails.
package alias

import "github.com/mkrogh/ttsync/internal/platform/normalize"

// Kind scopes an alias to one entity kind.
type Kind string

const (
	KindClub         Kind = "club"
	KindPlayer       Kind = "player"
	KindTournament   Kind = "tournament"
	KindClass        Kind = "class"
	KindRankingGroup Kind = "ranking_group"
)

// Alias maps one curated raw name to a canonical entity id.
type Alias struct {
	ID          int64
	Kind        Kind
	RawName     string
	CanonicalID int64
}

// Set is the per-run, per-kind in-memory view of the alias table, indexed
// both by the verbatim raw name and by its normalized key.
type Set struct {
	byRaw map[string]int64
	byKey map[string]int64
}

func NewSet(aliases []Alias) *Set {
	s := &Set{
		byRaw: make(map[string]int64, len(aliases)),
		byKey: make(map[string]int64, len(aliases)),
	}
	for _, a := range aliases {
		if a.RawName == "" || a.CanonicalID <= 0 {
			continue
		}
		s.byRaw[a.RawName] = a.CanonicalID
		if key := normalize.Key(a.RawName); key != "" {
			// First curated entry wins on key collisions.
			if _, ok := s.byKey[key]; !ok {
				s.byKey[key] = a.CanonicalID
			}
		}
	}
	return s
}

// Lookup tries the verbatim raw name first, then its normalized key.
func (s *Set) Lookup(rawName string) (int64, bool) {
	if s == nil {
		return 0, false
	}
	if id, ok := s.byRaw[rawName]; ok {
		return id, true
	}
	if id, ok := s.byKey[normalize.Key(rawName)]; ok {
		return id, true
	}
	return 0, false
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byRaw)
}
