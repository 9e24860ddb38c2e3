package license

import (
	"fmt"
	"time"
)

// License records a player's license for one season with one club.
// Natural key: (player_id, season, kind).
type License struct {
	ID        int64
	PlayerID  int64
	ClubID    int64
	Season    string
	Kind      string
	ValidFrom *time.Time
}

func (l License) Validate() error {
	if l.PlayerID <= 0 {
		return fmt.Errorf("license player id is required")
	}
	if l.Season == "" {
		return fmt.Errorf("license season is required")
	}
	if l.Kind == "" {
		return fmt.Errorf("license kind is required")
	}
	return nil
}
