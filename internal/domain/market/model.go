package market

import (
	"fmt"
	"time"
)

// Status is the market window lifecycle. Opening and closing are driven by
// elapsed time against the scheduled fields, resolution is host-driven.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusOpen      Status = "open"
	StatusResolving Status = "resolving"
	StatusResolved  Status = "resolved"
	StatusClosed    Status = "closed"
)

// Market is the per-room swap window record.
type Market struct {
	RoomID     string
	Status     Status
	OpensAt    *time.Time
	ClosesAt   *time.Time
	Duration   time.Duration
	ResolvedAt *time.Time
	UpdatedAt  time.Time
}

func (m Market) Validate() error {
	if m.RoomID == "" {
		return fmt.Errorf("market room id is required")
	}
	switch m.Status {
	case StatusScheduled, StatusOpen, StatusResolving, StatusResolved, StatusClosed:
	default:
		return fmt.Errorf("invalid market status: %s", m.Status)
	}

	return nil
}

// ShouldOpen reports whether a scheduled window's open time has arrived.
func (m Market) ShouldOpen(now time.Time) bool {
	return m.Status == StatusScheduled && m.OpensAt != nil && !now.Before(*m.OpensAt)
}

// ShouldClose reports whether an open window's close time has passed.
func (m Market) ShouldClose(now time.Time) bool {
	return m.Status == StatusOpen && m.ClosesAt != nil && !now.Before(*m.ClosesAt)
}
