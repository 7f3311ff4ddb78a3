package lineup

import (
	"fmt"
	"time"
)

// Lineup is one manager's starting selection plus bench, keyed by player id.
type Lineup struct {
	RoomID    string
	ManagerID string
	Starters  []string
	Bench     []string
	UpdatedAt time.Time
}

func (l Lineup) Validate() error {
	if l.RoomID == "" {
		return fmt.Errorf("lineup room id is required")
	}
	if l.ManagerID == "" {
		return fmt.Errorf("lineup manager id is required")
	}
	if len(l.Starters) > StartersCount {
		return fmt.Errorf("lineup starters exceed %d: %d", StartersCount, len(l.Starters))
	}

	seen := make(map[string]struct{}, len(l.Starters)+len(l.Bench))
	for _, id := range l.Starters {
		if id == "" {
			return fmt.Errorf("lineup starter id is required")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate player in lineup: %s", id)
		}
		seen[id] = struct{}{}
	}
	for _, id := range l.Bench {
		if id == "" {
			return fmt.Errorf("lineup bench id is required")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate player in lineup: %s", id)
		}
		seen[id] = struct{}{}
	}

	return nil
}
