package room

import "fmt"

// Picker returns the manager whose turn turnIndex is under snake ordering:
// even rounds walk the draft order forward, odd rounds walk it backward.
func Picker(draftOrder []string, turnIndex int) (string, error) {
	n := len(draftOrder)
	if n == 0 {
		return "", fmt.Errorf("draft order is empty")
	}
	if turnIndex < 0 {
		return "", fmt.Errorf("turn index must be non-negative: %d", turnIndex)
	}

	round := turnIndex / n
	offset := turnIndex % n
	if round%2 == 1 {
		offset = n - 1 - offset
	}

	return draftOrder[offset], nil
}

// Round returns the zero-based round a turn index belongs to.
func Round(memberCount, turnIndex int) int {
	if memberCount <= 0 {
		return 0
	}
	return turnIndex / memberCount
}
