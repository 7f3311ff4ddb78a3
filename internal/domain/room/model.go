package room

import (
	"fmt"
	"time"
)

// Member is one league participant inside a room.
type Member struct {
	ManagerID   string
	DisplayName string
}

// Room is the shared mutable state of one league instance. Every engine
// mutation reads a snapshot, validates against it, and writes back guarded
// by Version; a stale write must fail rather than overwrite a racing one.
type Room struct {
	ID               string
	Name             string
	HostManagerID    string
	Members          []Member
	DraftOrder       []string
	TurnIndex        int
	TurnDeadline     *time.Time
	TotalRounds      int
	Started          bool
	ScheduledStartAt *time.Time
	TurnDuration     time.Duration
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("room id is required")
	}
	if r.HostManagerID == "" {
		return fmt.Errorf("room host manager id is required")
	}
	if len(r.Members) == 0 {
		return fmt.Errorf("room members are required")
	}
	if r.TotalRounds <= 0 {
		return fmt.Errorf("room total rounds must be greater than zero")
	}

	return nil
}

func (r Room) HasMember(managerID string) bool {
	for _, m := range r.Members {
		if m.ManagerID == managerID {
			return true
		}
	}
	return false
}

func (r Room) IsHost(managerID string) bool {
	return managerID != "" && managerID == r.HostManagerID
}

// TotalPicks is the number of picks a complete draft commits.
func (r Room) TotalPicks() int {
	return r.TotalRounds * len(r.Members)
}

// DraftComplete reports whether every turn has been consumed.
func (r Room) DraftComplete() bool {
	return r.Started && r.TurnIndex >= r.TotalPicks()
}

// DeadlinePassed reports whether the current turn deadline has elapsed.
func (r Room) DeadlinePassed(now time.Time) bool {
	return r.TurnDeadline != nil && !now.Before(*r.TurnDeadline)
}
