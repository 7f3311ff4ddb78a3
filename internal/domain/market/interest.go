package market

import (
	"fmt"
	"time"
)

// MaxChoicesPerManager caps how many swap requests one interest carries.
const MaxChoicesPerManager = 2

// Choice is one requested swap: acquire WantPlayerID, release SwapOutPlayerID.
type Choice struct {
	WantPlayerID    string
	SwapOutPlayerID string
}

func (c Choice) Validate() error {
	if c.WantPlayerID == "" {
		return fmt.Errorf("choice want player id is required")
	}
	if c.SwapOutPlayerID == "" {
		return fmt.Errorf("choice swap-out player id is required")
	}
	if c.WantPlayerID == c.SwapOutPlayerID {
		return fmt.Errorf("choice cannot want and swap out the same player: %s", c.WantPlayerID)
	}

	return nil
}

// Interest is one manager's submission for the current window. Resubmission
// overwrites the previous interest wholesale and refreshes SubmittedAt.
type Interest struct {
	RoomID      string
	ManagerID   string
	Choices     []Choice
	SubmittedAt time.Time
}

func (i Interest) Validate() error {
	if i.RoomID == "" {
		return fmt.Errorf("interest room id is required")
	}
	if i.ManagerID == "" {
		return fmt.Errorf("interest manager id is required")
	}
	if len(i.Choices) == 0 {
		return fmt.Errorf("interest requires at least one choice")
	}
	if len(i.Choices) > MaxChoicesPerManager {
		return fmt.Errorf("interest allows at most %d choices, got %d", MaxChoicesPerManager, len(i.Choices))
	}
	for _, c := range i.Choices {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	return nil
}
