package trade

import (
	"fmt"
	"time"
)

// Status is the offer state machine. pending branches to accepted, rejected
// or canceled; accepted may complete exactly once via the apply step; every
// other state is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
)

// Action is a respond verb from one of the offer's two parties.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionCancel Action = "cancel"
)

// MaxPlayersPerSide caps how many players each side of an offer lists.
const MaxPlayersPerSide = 2

// Offer is a two-party swap proposal. Give and Receive are equal-length
// player id lists swapped pairwise at apply time.
type Offer struct {
	ID            string
	RoomID        string
	FromManagerID string
	ToManagerID   string
	Give          []string
	Receive       []string
	Status        Status
	CreatedAt     time.Time
	RespondedAt   *time.Time
	AppliedAt     *time.Time
}

func (o Offer) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("trade offer id is required")
	}
	if o.RoomID == "" {
		return fmt.Errorf("trade offer room id is required")
	}
	if o.FromManagerID == "" || o.ToManagerID == "" {
		return fmt.Errorf("trade offer requires both manager ids")
	}
	if o.FromManagerID == o.ToManagerID {
		return fmt.Errorf("trade offer cannot target its own sender")
	}
	if len(o.Give) == 0 || len(o.Give) > MaxPlayersPerSide {
		return fmt.Errorf("trade offer give side must list 1-%d players, got %d", MaxPlayersPerSide, len(o.Give))
	}
	if len(o.Give) != len(o.Receive) {
		return fmt.Errorf("trade offer sides must be equal length: give=%d receive=%d", len(o.Give), len(o.Receive))
	}

	// A repeated id would turn the pairwise swap into an uneven trade.
	seen := make(map[string]struct{}, len(o.Give)+len(o.Receive))
	for _, playerID := range o.Give {
		if _, dup := seen[playerID]; dup {
			return fmt.Errorf("trade offer lists player %s more than once", playerID)
		}
		seen[playerID] = struct{}{}
	}
	for _, playerID := range o.Receive {
		if _, dup := seen[playerID]; dup {
			return fmt.Errorf("trade offer lists player %s more than once", playerID)
		}
		seen[playerID] = struct{}{}
	}

	return nil
}

// Terminal reports whether the offer can no longer change state.
func (o Offer) Terminal() bool {
	switch o.Status {
	case StatusRejected, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}
