// Package record holds the small types shared by every entity kind:
// scrape-run provenance for raw rows and the result of a natural-key upsert.
package record

// Source identifies which scraper produced a raw row.
type Source string

const (
	SourceLicenses   Source = "licenses"
	SourceRanking    Source = "ranking"
	SourceTournament Source = "tournament"
)

// Priority ranks sources for identity fields; lower wins. The license
// register is authoritative for who a player is, the ranking export second,
// tournament sign-up data last.
func (s Source) Priority() int {
	switch s {
	case SourceLicenses:
		return 0
	case SourceRanking:
		return 1
	case SourceTournament:
		return 2
	default:
		return 9
	}
}

// Meta is the provenance carried by every raw row: the scrape run it came
// from, the source scraper, and the row ordinal inside that source (used to
// break ties when raw sources disagree).
type Meta struct {
	RunID  int64
	Source Source
	RowNum int
}

// Upserted reports which branch an insert-or-update took.
type Upserted struct {
	ID       int64
	Inserted bool
}
