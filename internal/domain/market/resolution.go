package market

import "time"

// Rejection reasons recorded per choice during resolution. These values are
// persisted and returned to clients, so they are part of the data contract.
const (
	ReasonWantNotAvailable = "WANT_NOT_AVAILABLE"
	ReasonSwapOutNotOwned  = "SWAPOUT_NOT_OWNED"
	ReasonSameTarget       = "WANT_EQUALS_SWAPOUT"
	ReasonSwapOutLive      = "SWAPOUT_STARTER_LIVE"
)

// Reassignment is one accepted swap: the slot keyed by SwapOutPlayerID is
// rewritten to carry WantPlayerID.
type Reassignment struct {
	ManagerID       string
	WantPlayerID    string
	SwapOutPlayerID string
}

// RejectedChoice records a choice resolution declined, with the reason.
type RejectedChoice struct {
	ManagerID string
	Choice    Choice
	Reason    string
}

// Resolution is the full, replayable outcome of one resolution run.
type Resolution struct {
	RoomID        string
	Accepted      []Reassignment
	Rejected      []RejectedChoice
	PriorityOrder []string
	ResolvedAt    time.Time
}
