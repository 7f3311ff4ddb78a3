package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/trade"
)

// Store keeps room aggregates in process memory behind one mutex per store.
// Commit enforces the same compare-and-swap contract the Postgres store
// does, so usecase tests exercise real conflict paths.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]engine.State
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]engine.State)}
}

// PutState seeds or replaces a room aggregate wholesale. Test and dev
// seeding only; runtime writes go through Commit.
func (s *Store) PutState(state engine.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[state.Room.ID] = normalize(state).Clone()
}

func (s *Store) LoadState(_ context.Context, roomID string) (engine.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.rooms[roomID]
	if !ok {
		return engine.State{}, false, nil
	}

	return state.Clone(), true, nil
}

func (s *Store) ListRoomIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

func (s *Store) Commit(_ context.Context, cs engine.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rooms[cs.RoomID]
	if !ok {
		return engine.ErrVersionConflict
	}
	if current.Room.Version != cs.BaseVersion {
		return engine.ErrVersionConflict
	}

	next := current.Clone()
	if cs.Room != nil {
		next.Room = *cs.Room
	}
	next.Room.Version = cs.BaseVersion + 1

	for _, id := range cs.DeleteSlotIDs {
		delete(next.Slots, id)
	}
	for _, slot := range cs.Slots {
		next.Slots[slot.PlayerID] = slot
	}
	for _, item := range cs.Lineups {
		next.Lineups[item.ManagerID] = item
	}
	if cs.Market != nil {
		m := *cs.Market
		next.Market = &m
	}
	if cs.ClearInterests {
		next.Interests = make(map[string]market.Interest)
	}
	for _, interest := range cs.Interests {
		next.Interests[interest.ManagerID] = interest
	}
	for _, offer := range cs.Trades {
		next.Trades[offer.ID] = offer
	}

	s.rooms[cs.RoomID] = next
	return nil
}

func normalize(state engine.State) engine.State {
	if state.Slots == nil {
		state.Slots = make(map[string]roster.Slot)
	}
	if state.Lineups == nil {
		state.Lineups = make(map[string]lineup.Lineup)
	}
	if state.Interests == nil {
		state.Interests = make(map[string]market.Interest)
	}
	if state.Trades == nil {
		state.Trades = make(map[string]trade.Offer)
	}
	return state
}
