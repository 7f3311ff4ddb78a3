package player

import "context"

// Repository exposes read-only access to the seeded player catalog.
type Repository interface {
	ListByRoom(ctx context.Context, roomID string) ([]Player, error)
	GetByIDs(ctx context.Context, roomID string, playerIDs []string) ([]Player, error)
}
