package lineup

import (
	"fmt"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
)

// StartersCount is the exact number of starters a legal lineup fields.
const StartersCount = 11

// Requirement bounds how many starters a position may contribute.
type Requirement struct {
	Min int
	Max int
}

// FormationRequirements is the single legality contract: 1 GK, 3-5 DEF,
// 3-5 MID, 1-3 ATT, exactly 11 total.
var FormationRequirements = map[player.Position]Requirement{
	player.PositionGoalkeeper: {Min: 1, Max: 1},
	player.PositionDefender:   {Min: 3, Max: 5},
	player.PositionMidfielder: {Min: 3, Max: 5},
	player.PositionAttacker:   {Min: 1, Max: 3},
}

// fillPriority is the cycling order used to top up a repaired lineup once
// every position has reached its minimum.
var fillPriority = []player.Position{
	player.PositionDefender,
	player.PositionMidfielder,
	player.PositionAttacker,
}

// positionOrder fixes the output order of a repaired lineup.
var positionOrder = []player.Position{
	player.PositionGoalkeeper,
	player.PositionDefender,
	player.PositionMidfielder,
	player.PositionAttacker,
}

// RosterPlayer is the minimal roster view the formation rules need.
type RosterPlayer struct {
	ID       string
	Position player.Position
}

// CheckFormation verifies starters form a legal 11 against the roster's
// position assignments.
func CheckFormation(starters []string, positions map[string]player.Position) error {
	if len(starters) != StartersCount {
		return fmt.Errorf("lineup must field exactly %d starters, got %d", StartersCount, len(starters))
	}

	counts := make(map[player.Position]int, len(FormationRequirements))
	for _, id := range starters {
		pos, ok := positions[id]
		if !ok {
			return fmt.Errorf("starter %s is not on the roster", id)
		}
		counts[pos]++
	}

	for pos, req := range FormationRequirements {
		if c := counts[pos]; c < req.Min || c > req.Max {
			return fmt.Errorf("position %s has %d starters, allowed %d-%d", pos, c, req.Min, req.Max)
		}
	}

	return nil
}

// Repair rebuilds a legal starting lineup from a post-swap roster and the
// previous starters. It keeps as much of the previous selection as the
// formation bounds allow: excess starters are dropped down to each position
// maximum, positions below their minimum are refilled from the roster, and
// the remainder is topped up to 11 cycling DEF, MID, ATT. If no legal 11
// can be assembled the roster's first 11 entries are returned as-is.
func Repair(rosterPlayers []RosterPlayer, prevStarters []string) []string {
	positions := make(map[string]player.Position, len(rosterPlayers))
	for _, rp := range rosterPlayers {
		positions[rp.ID] = rp.Position
	}

	// Keep only previous starters that still exist on the roster, deduplicated.
	used := make(map[string]struct{}, StartersCount)
	byPos := make(map[player.Position][]string, len(FormationRequirements))
	for _, id := range prevStarters {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		if _, dup := used[id]; dup {
			continue
		}
		used[id] = struct{}{}
		byPos[pos] = append(byPos[pos], id)
	}

	// Trim each position down to its maximum, dropping latest entries first.
	for pos, req := range FormationRequirements {
		if len(byPos[pos]) > req.Max {
			for _, id := range byPos[pos][req.Max:] {
				delete(used, id)
			}
			byPos[pos] = byPos[pos][:req.Max]
		}
	}

	// Fill every position up to its minimum from the remaining roster.
	for _, pos := range positionOrder {
		req := FormationRequirements[pos]
		for _, rp := range rosterPlayers {
			if len(byPos[pos]) >= req.Min {
				break
			}
			if rp.Position != pos {
				continue
			}
			if _, taken := used[rp.ID]; taken {
				continue
			}
			used[rp.ID] = struct{}{}
			byPos[pos] = append(byPos[pos], rp.ID)
		}
	}

	// Top up to 11 following the fixed fill priority, respecting maxima.
	total := 0
	for _, ids := range byPos {
		total += len(ids)
	}
	for total < StartersCount {
		added := false
		for _, pos := range fillPriority {
			if total >= StartersCount {
				break
			}
			if len(byPos[pos]) >= FormationRequirements[pos].Max {
				continue
			}
			for _, rp := range rosterPlayers {
				if rp.Position != pos {
					continue
				}
				if _, taken := used[rp.ID]; taken {
					continue
				}
				used[rp.ID] = struct{}{}
				byPos[pos] = append(byPos[pos], rp.ID)
				total++
				added = true
				break
			}
		}
		if !added {
			break
		}
	}

	starters := make([]string, 0, StartersCount)
	for _, pos := range positionOrder {
		starters = append(starters, byPos[pos]...)
	}

	if err := CheckFormation(starters, positions); err != nil {
		return firstEleven(rosterPlayers)
	}

	return starters
}

func firstEleven(rosterPlayers []RosterPlayer) []string {
	n := len(rosterPlayers)
	if n > StartersCount {
		n = StartersCount
	}
	starters := make([]string, 0, n)
	for _, rp := range rosterPlayers[:n] {
		starters = append(starters, rp.ID)
	}
	return starters
}
