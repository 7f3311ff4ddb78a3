package roster

import (
	"fmt"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
)

// Slot is the ownership record binding one player to one manager. Slots are
// created by a committed pick and only ever mutated, never deleted: market
// swaps and trade applies rewrite PlayerID/Position in place so the pick's
// turn and round survive as draft provenance.
type Slot struct {
	PlayerID       string
	RoomID         string
	OwnerManagerID string
	Turn           int
	Round          int
	Position       player.Position
}

func (s Slot) Validate() error {
	if s.PlayerID == "" {
		return fmt.Errorf("roster slot player id is required")
	}
	if s.RoomID == "" {
		return fmt.Errorf("roster slot room id is required")
	}
	if s.OwnerManagerID == "" {
		return fmt.Errorf("roster slot owner manager id is required")
	}
	if _, ok := player.AllPositions[s.Position]; !ok {
		return fmt.Errorf("invalid roster slot position: %s", s.Position)
	}

	return nil
}

// OwnedBy filters slots down to a single manager's roster.
func OwnedBy(slots map[string]Slot, managerID string) []Slot {
	owned := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.OwnerManagerID == managerID {
			owned = append(owned, s)
		}
	}
	return owned
}
