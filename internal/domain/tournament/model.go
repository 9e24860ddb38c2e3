package tournament

import (
	"fmt"
	"time"
)

// Tournament is the canonical row for one scraped tournament. ExternalID is
// the portal tournament id and the natural key.
type Tournament struct {
	ID         int64
	ExternalID string
	Name       string
	NameKey    string
	Season     string
	StartDate  *time.Time
}

func (t Tournament) Validate() error {
	if t.ExternalID == "" {
		return fmt.Errorf("tournament external id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("tournament name is required")
	}
	return nil
}

// Class is one competition class inside a tournament (e.g. "Herre Single A").
// The natural key is (tournament_id, external_id).
type Class struct {
	ID           int64
	TournamentID int64
	ExternalID   string
	Name         string
	NameKey      string
	Date         *time.Time
}

func (c Class) Validate() error {
	if c.TournamentID <= 0 {
		return fmt.Errorf("class tournament id is required")
	}
	if c.ExternalID == "" {
		return fmt.Errorf("class external id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("class name is required")
	}
	return nil
}

// Stage is a fixed lookup row (code -> id), e.g. "P" pool play, "K" knockout.
type Stage struct {
	ID   int64
	Code string
	Name string
}
