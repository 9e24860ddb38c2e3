// Package rawdata models the scraper output verbatim: free-text fields,
// external ids and provenance, appended per scrape run and never updated.
// The resolution pipeline is the only reader.
package rawdata

import "github.com/mkrogh/ttsync/internal/domain/record"

// Tournament is one scraped tournament listing.
type Tournament struct {
	record.Meta
	ExternalID string `validate:"required"`
	Name       string `validate:"required"`
	Season     string
	StartDate  string
}

// Class is one scraped competition class, still keyed by portal ids.
type Class struct {
	record.Meta
	TournamentExternalID string `validate:"required"`
	ExternalID           string `validate:"required"`
	Name                 string `validate:"required"`
	Date                 string
}

// Participant is one sign-up row inside a class. Player and club arrive as
// free text plus an optional portal player number.
type Participant struct {
	record.Meta
	TournamentExternalID string `validate:"required"`
	ClassExternalID      string `validate:"required"`
	PlayerExternalID     string
	PlayerName           string `validate:"required"`
	ClubName             string
	GroupDescription     string
	StageCode            string
	Seed                 string
}

// License is one row from the license register export. The register is the
// authoritative source for player identity, so all four identity fields are
// required.
type License struct {
	record.Meta
	PlayerExternalID string `validate:"required"`
	FirstName        string `validate:"required"`
	LastName         string `validate:"required"`
	BirthYear        string `validate:"required"`
	ClubName         string `validate:"required"`
	Season           string `validate:"required"`
	Kind             string
	ValidFrom        string
}

// RankingRow is one row from the ranking export; it carries player identity
// as a secondary source plus the ranking group the row belongs to.
type RankingRow struct {
	record.Meta
	GroupExternalID  string
	GroupName        string `validate:"required"`
	PlayerExternalID string `validate:"required"`
	FirstName        string `validate:"required"`
	LastName         string `validate:"required"`
	BirthYear        string `validate:"required"`
	ClubName         string
	Points           string
}

// Transition is one scraped club-transition row.
type Transition struct {
	record.Meta
	PlayerExternalID string `validate:"required"`
	PlayerName       string
	FromClubName     string
	ToClubName       string `validate:"required"`
	Date             string `validate:"required"`
}
