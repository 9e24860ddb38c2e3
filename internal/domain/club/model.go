package club

import "fmt"

// Club is the canonical row for a table-tennis club. ExternalID comes from
// the license register and may be empty for clubs only seen in tournament
// sign-ups; NameKey is the normalized comparison key derived from Name.
type Club struct {
	ID         int64
	ExternalID string
	Name       string
	NameKey    string
}

func (c Club) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("club name is required")
	}
	if c.NameKey == "" {
		return fmt.Errorf("club name key is required")
	}
	return nil
}
