package transition

import (
	"fmt"
	"time"
)

// Transition records a player moving between clubs. FromClubID is zero when
// the portal lists no previous club (first registration). Natural key:
// (player_id, effective_date).
type Transition struct {
	ID            int64
	PlayerID      int64
	FromClubID    int64
	ToClubID      int64
	EffectiveDate time.Time
}

func (t Transition) Validate() error {
	if t.PlayerID <= 0 {
		return fmt.Errorf("transition player id is required")
	}
	if t.ToClubID <= 0 {
		return fmt.Errorf("transition target club id is required")
	}
	if t.EffectiveDate.IsZero() {
		return fmt.Errorf("transition effective date is required")
	}
	return nil
}
