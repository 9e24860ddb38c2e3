package participant

import "fmt"

// Participant links a player (and the club they played for) to a tournament
// class. The natural key is (class_id, player_id).
type Participant struct {
	ID      int64
	ClassID int64
	PlayerID int64
	ClubID  int64
	Seed    int
}

func (p Participant) Validate() error {
	if p.ClassID <= 0 {
		return fmt.Errorf("participant class id is required")
	}
	if p.PlayerID <= 0 {
		return fmt.Errorf("participant player id is required")
	}
	return nil
}

// Group is a pool or knockout grouping inside a class; natural key
// (class_id, description). Members are participant ids and are refreshed
// wholesale per group so stale membership never survives a re-resolution.
type Group struct {
	ID          int64
	ClassID     int64
	Description string
	StageID     int64
}

func (g Group) Validate() error {
	if g.ClassID <= 0 {
		return fmt.Errorf("group class id is required")
	}
	if g.Description == "" {
		return fmt.Errorf("group description is required")
	}
	return nil
}
