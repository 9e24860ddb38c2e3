package player

import "fmt"

// Player is the canonical row for a licensed or observed player.
// ExternalID is the portal player number and is the natural key; it is
// unique across both the license and ranking sources.
type Player struct {
	ID         int64
	ExternalID string
	FirstName  string
	LastName   string
	BirthYear  int
	ClubID     int64
	NameKey    string
}

func (p Player) Validate() error {
	if p.ExternalID == "" {
		return fmt.Errorf("player external id is required")
	}
	if p.FirstName == "" {
		return fmt.Errorf("player first name is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("player last name is required")
	}
	if p.BirthYear <= 0 {
		return fmt.Errorf("player birth year is required")
	}
	return nil
}

func (p Player) FullName() string {
	return p.FirstName + " " + p.LastName
}
