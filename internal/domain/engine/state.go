package engine

import (
	"context"
	"errors"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/trade"
)

// ErrVersionConflict signals an optimistic commit lost a race: the room's
// version moved between the snapshot read and the write. Callers retry from
// a fresh snapshot.
var ErrVersionConflict = errors.New("room version conflict")

// State is one consistent snapshot of everything the engine may mutate for a
// room. Slots are keyed by player id, lineups and interests by manager id,
// trades by offer id. The snapshot is a copy; mutating it never affects the
// store until a ChangeSet commits.
type State struct {
	Room      room.Room
	Slots     map[string]roster.Slot
	Lineups   map[string]lineup.Lineup
	Market    *market.Market
	Interests map[string]market.Interest
	Trades    map[string]trade.Offer
}

// Clone returns a deep copy safe to mutate independently of the receiver.
func (s State) Clone() State {
	out := State{
		Room:      s.Room,
		Slots:     make(map[string]roster.Slot, len(s.Slots)),
		Lineups:   make(map[string]lineup.Lineup, len(s.Lineups)),
		Interests: make(map[string]market.Interest, len(s.Interests)),
		Trades:    make(map[string]trade.Offer, len(s.Trades)),
	}
	out.Room.Members = append([]room.Member(nil), s.Room.Members...)
	out.Room.DraftOrder = append([]string(nil), s.Room.DraftOrder...)
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	for k, v := range s.Lineups {
		v.Starters = append([]string(nil), v.Starters...)
		v.Bench = append([]string(nil), v.Bench...)
		out.Lineups[k] = v
	}
	if s.Market != nil {
		m := *s.Market
		out.Market = &m
	}
	for k, v := range s.Interests {
		v.Choices = append([]market.Choice(nil), v.Choices...)
		out.Interests[k] = v
	}
	for k, v := range s.Trades {
		v.Give = append([]string(nil), v.Give...)
		v.Receive = append([]string(nil), v.Receive...)
		out.Trades[k] = v
	}
	return out
}

// ChangeSet is the atomic write unit. BaseVersion must equal the room's
// stored version at commit time or the commit fails with ErrVersionConflict.
// Nil or empty fields leave that part of the state untouched; the committed
// room always receives version BaseVersion+1. DeleteSlotIDs run before Slot
// upserts so a swap can rekey an ownership record in one commit.
type ChangeSet struct {
	RoomID      string
	BaseVersion int64

	Room           *room.Room
	Slots          []roster.Slot
	DeleteSlotIDs  []string
	Lineups        []lineup.Lineup
	Market         *market.Market
	Interests      []market.Interest
	ClearInterests bool
	Trades         []trade.Offer
}

// Store persists room aggregates. Commit applies a ChangeSet atomically
// under compare-and-swap on the room version: every write in the set lands
// or none do.
type Store interface {
	LoadState(ctx context.Context, roomID string) (State, bool, error)
	ListRoomIDs(ctx context.Context) ([]string, error)
	Commit(ctx context.Context, cs ChangeSet) error
}
