package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
)

// autoPickRandomAttempts bounds the random probe before auto-pick falls back
// to a linear scan of the candidate pool.
const autoPickRandomAttempts = 32

// RoomView is the read model for a room: the stored record plus the computed
// current picker.
type RoomView struct {
	Room          room.Room
	CurrentPicker string
	DraftComplete bool
}

type DraftService struct {
	store      engine.Store
	playerRepo player.Repository
	now        func() time.Time
	randIntn   func(n int) int
}

func NewDraftService(store engine.Store, playerRepo player.Repository) *DraftService {
	return &DraftService{
		store:      store,
		playerRepo: playerRepo,
		now:        time.Now,
		randIntn:   rand.Intn,
	}
}

func (s *DraftService) GetRoom(ctx context.Context, roomID string) (RoomView, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.GetRoom")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return RoomView{}, fmt.Errorf("%w: room_id is required", ErrInvalidInput)
	}

	state, exists, err := s.store.LoadState(ctx, roomID)
	if err != nil {
		return RoomView{}, fmt.Errorf("load room state: %w", err)
	}
	if !exists {
		return RoomView{}, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}

	view := RoomView{Room: state.Room, DraftComplete: state.Room.DraftComplete()}
	if state.Room.Started && !view.DraftComplete {
		picker, err := room.Picker(state.Room.DraftOrder, state.Room.TurnIndex)
		if err != nil {
			return RoomView{}, fmt.Errorf("compute picker: %w", err)
		}
		view.CurrentPicker = picker
	}

	return view, nil
}

// StartDraft freezes the draft order, arms the first turn deadline and marks
// the room started. Host only; requires a seeded player pool.
func (s *DraftService) StartDraft(ctx context.Context, roomID, callerManagerID string) error {
	ctx, span := startUsecaseSpan(ctx, "DraftService.StartDraft")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	callerManagerID = strings.TrimSpace(callerManagerID)
	if roomID == "" || callerManagerID == "" {
		return fmt.Errorf("%w: room_id and manager_id are required", ErrInvalidInput)
	}

	pool, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list room players: %w", err)
	}
	if len(pool) == 0 {
		return fmt.Errorf("%w: player pool is not seeded for room %s", ErrInvalidInput, roomID)
	}

	return runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !state.Room.IsHost(callerManagerID) {
			return nil, fmt.Errorf("%w: only the host may start the draft", ErrUnauthorized)
		}
		if state.Room.Started {
			return nil, fmt.Errorf("%w: room %s", ErrAlreadyStarted, roomID)
		}
		if len(state.Room.Members) == 0 {
			return nil, fmt.Errorf("%w: room has no members", ErrInvalidInput)
		}

		next := state.Room
		next.DraftOrder = s.freezeDraftOrder(state.Room)
		next.TurnIndex = 0
		next.Started = true
		deadline := s.now().Add(next.TurnDuration)
		next.TurnDeadline = &deadline
		next.UpdatedAt = s.now()

		return &engine.ChangeSet{Room: &next}, nil
	})
}

// MaybeStartDraft transitions a scheduled room to started once its scheduled
// time has passed. Idempotent: already-started and not-yet-due rooms are
// no-ops. The driver calls it privileged; over HTTP only the host may.
func (s *DraftService) MaybeStartDraft(ctx context.Context, roomID, callerManagerID string, privileged bool) error {
	ctx, span := startUsecaseSpan(ctx, "DraftService.MaybeStartDraft")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	callerManagerID = strings.TrimSpace(callerManagerID)
	if roomID == "" {
		return fmt.Errorf("%w: room_id is required", ErrInvalidInput)
	}

	return runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !privileged && !state.Room.IsHost(callerManagerID) {
			return nil, fmt.Errorf("%w: only the host may trigger a scheduled start", ErrUnauthorized)
		}
		if state.Room.Started {
			return nil, nil
		}
		if state.Room.ScheduledStartAt == nil || s.now().Before(*state.Room.ScheduledStartAt) {
			return nil, nil
		}

		next := state.Room
		next.DraftOrder = s.freezeDraftOrder(state.Room)
		next.TurnIndex = 0
		next.Started = true
		deadline := s.now().Add(next.TurnDuration)
		next.TurnDeadline = &deadline
		next.UpdatedAt = s.now()

		return &engine.ChangeSet{Room: &next}, nil
	})
}

// CommitPick records one draft pick for the current picker and advances the
// turn. Ownership creation and the turn advance commit together or not at
// all.
func (s *DraftService) CommitPick(ctx context.Context, roomID, managerID, playerID string, position player.Position) error {
	ctx, span := startUsecaseSpan(ctx, "DraftService.CommitPick")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	managerID = strings.TrimSpace(managerID)
	playerID = strings.TrimSpace(playerID)
	if roomID == "" || managerID == "" || playerID == "" {
		return fmt.Errorf("%w: room_id, manager_id and player_id are required", ErrInvalidInput)
	}
	if _, ok := player.AllPositions[position]; !ok {
		return fmt.Errorf("%w: invalid position %q", ErrInvalidInput, position)
	}

	catalog, err := s.playerRepo.GetByIDs(ctx, roomID, []string{playerID})
	if err != nil {
		return fmt.Errorf("get player: %w", err)
	}
	if len(catalog) == 0 {
		return fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if catalog[0].Position != position {
		return fmt.Errorf("%w: player %s plays %s, not %s", ErrInvalidInput, playerID, catalog[0].Position, position)
	}

	return runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		return s.buildPick(state, managerID, playerID, position, false)
	})
}

// AutoPick commits a random undrafted candidate on behalf of the current
// picker once the turn deadline has passed. Safe to retry: a premature call
// fails without advancing state.
func (s *DraftService) AutoPick(ctx context.Context, roomID, callerManagerID string, privileged bool) error {
	ctx, span := startUsecaseSpan(ctx, "DraftService.AutoPick")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	callerManagerID = strings.TrimSpace(callerManagerID)
	if roomID == "" {
		return fmt.Errorf("%w: room_id is required", ErrInvalidInput)
	}

	pool, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list room players: %w", err)
	}

	return runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !privileged && !state.Room.IsHost(callerManagerID) {
			return nil, fmt.Errorf("%w: only the host may force a pick", ErrUnauthorized)
		}
		if !state.Room.Started {
			return nil, fmt.Errorf("%w: room %s", ErrNotStarted, roomID)
		}
		if state.Room.DraftComplete() {
			return nil, fmt.Errorf("%w: room %s", ErrRoundsComplete, roomID)
		}
		if !state.Room.DeadlinePassed(s.now()) {
			return nil, fmt.Errorf("%w: room %s", ErrDeadlineNotReached, roomID)
		}

		picker, err := room.Picker(state.Room.DraftOrder, state.Room.TurnIndex)
		if err != nil {
			return nil, fmt.Errorf("compute picker: %w", err)
		}

		candidate, ok := s.pickUndrafted(pool, state.Slots)
		if !ok {
			return nil, fmt.Errorf("%w: no undrafted candidates left in room %s", ErrNotFound, roomID)
		}

		return s.buildPick(state, picker, candidate.ID, candidate.Position, true)
	})
}

// buildPick validates pick preconditions against the snapshot and assembles
// the atomic slot + turn-advance change set.
func (s *DraftService) buildPick(state engine.State, managerID, playerID string, position player.Position, privileged bool) (*engine.ChangeSet, error) {
	if !state.Room.Started {
		return nil, fmt.Errorf("%w: room %s", ErrNotStarted, state.Room.ID)
	}
	if state.Room.DraftComplete() {
		return nil, fmt.Errorf("%w: room %s", ErrRoundsComplete, state.Room.ID)
	}

	picker, err := room.Picker(state.Room.DraftOrder, state.Room.TurnIndex)
	if err != nil {
		return nil, fmt.Errorf("compute picker: %w", err)
	}
	if !privileged && managerID != picker {
		return nil, fmt.Errorf("%w: current picker is %s", ErrOutOfTurn, picker)
	}
	if _, taken := state.Slots[playerID]; taken {
		return nil, fmt.Errorf("%w: player %s", ErrAlreadyTaken, playerID)
	}

	slot := roster.Slot{
		PlayerID:       playerID,
		RoomID:         state.Room.ID,
		OwnerManagerID: managerID,
		Turn:           state.Room.TurnIndex,
		Round:          room.Round(len(state.Room.Members), state.Room.TurnIndex),
		Position:       position,
	}
	if err := slot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	next := state.Room
	next.TurnIndex++
	if next.DraftComplete() {
		next.TurnDeadline = nil
	} else {
		deadline := s.now().Add(next.TurnDuration)
		next.TurnDeadline = &deadline
	}
	next.UpdatedAt = s.now()

	return &engine.ChangeSet{
		Room:  &next,
		Slots: []roster.Slot{slot},
	}, nil
}

// pickUndrafted selects a uniformly random candidate not yet in the ledger,
// probing randomly a bounded number of times before scanning linearly.
func (s *DraftService) pickUndrafted(pool []player.Player, slots map[string]roster.Slot) (player.Player, bool) {
	if len(pool) == 0 {
		return player.Player{}, false
	}

	for i := 0; i < autoPickRandomAttempts; i++ {
		candidate := pool[s.randIntn(len(pool))]
		if _, taken := slots[candidate.ID]; !taken {
			return candidate, true
		}
	}
	for _, candidate := range pool {
		if _, taken := slots[candidate.ID]; !taken {
			return candidate, true
		}
	}

	return player.Player{}, false
}

// freezeDraftOrder keeps a preset order and shuffles the member list into
// one otherwise. The order never changes again for the room's lifetime.
func (s *DraftService) freezeDraftOrder(r room.Room) []string {
	if len(r.DraftOrder) > 0 {
		return r.DraftOrder
	}

	order := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		order = append(order, m.ManagerID)
	}
	for i := len(order) - 1; i > 0; i-- {
		j := s.randIntn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}
