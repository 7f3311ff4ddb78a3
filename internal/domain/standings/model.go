package standings

import "context"

// Entry is the per-manager standings aggregate recomputed externally after
// each scoring round. The engine reads it only as a market priority key.
type Entry struct {
	ManagerID          string
	TablePoints        int
	TotalFantasyPoints float64
}

// Provider supplies standings entries for a room's managers. Missing
// managers resolve to a zero Entry.
type Provider interface {
	ForRoom(ctx context.Context, roomID string) (map[string]Entry, error)
}

// LiveStatusProvider supplies the ids of players whose match is currently
// in progress, feeding the market's anti-sniping rule.
type LiveStatusProvider interface {
	LiveStarters(ctx context.Context, roomID string) (map[string]struct{}, error)
}
