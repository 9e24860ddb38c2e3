package ranking

import "fmt"

// Group is a canonical ranking group (e.g. "Herre Senior", "Drenge U15").
// The ranking export tags every row with a group name; ExternalID is set
// when the portal exposes a stable group id, otherwise matching falls back
// to the normalized name key.
type Group struct {
	ID         int64
	ExternalID string
	Name       string
	NameKey    string
}

func (g Group) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("ranking group name is required")
	}
	if g.NameKey == "" {
		return fmt.Errorf("ranking group name key is required")
	}
	return nil
}
