package player

import "fmt"

// Position represents football position categories used by formation rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionAttacker   Position = "ATT"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionAttacker:   {},
}

// Player is a catalog entry in a room's draft pool. Seeded once per room by
// the pool-seeding process and treated as immutable lookup data here.
type Player struct {
	ID       string
	RoomID   string
	Name     string
	Position Position
	TeamName string
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.RoomID == "" {
		return fmt.Errorf("player room id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}

	return nil
}
