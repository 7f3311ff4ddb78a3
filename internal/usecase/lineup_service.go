package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
)

type LineupService struct {
	store engine.Store
	now   func() time.Time
}

func NewLineupService(store engine.Store) *LineupService {
	return &LineupService{
		store: store,
		now:   time.Now,
	}
}

// GetRoster returns every ownership record in a room, ordered by draft turn.
func (s *LineupService) GetRoster(ctx context.Context, roomID string) ([]roster.Slot, error) {
	ctx, span := startUsecaseSpan(ctx, "LineupService.GetRoster")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("%w: room_id is required", ErrInvalidInput)
	}

	state, exists, err := s.store.LoadState(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load room state: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}

	slots := make([]roster.Slot, 0, len(state.Slots))
	for _, slot := range state.Slots {
		slots = append(slots, slot)
	}
	sortSlotsByTurn(slots)

	return slots, nil
}

func (s *LineupService) GetLineup(ctx context.Context, roomID, managerID string) (lineup.Lineup, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "LineupService.GetLineup")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	managerID = strings.TrimSpace(managerID)
	if roomID == "" || managerID == "" {
		return lineup.Lineup{}, false, fmt.Errorf("%w: room_id and manager_id are required", ErrInvalidInput)
	}

	state, exists, err := s.store.LoadState(ctx, roomID)
	if err != nil {
		return lineup.Lineup{}, false, fmt.Errorf("load room state: %w", err)
	}
	if !exists {
		return lineup.Lineup{}, false, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}

	item, ok := state.Lineups[managerID]
	return item, ok, nil
}

// SaveLineup overwrites a manager's starting selection after checking every
// starter is on their roster and the formation is legal. The bench becomes
// the rest of the roster.
func (s *LineupService) SaveLineup(ctx context.Context, roomID, managerID string, starters []string) (lineup.Lineup, error) {
	ctx, span := startUsecaseSpan(ctx, "LineupService.SaveLineup")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	managerID = strings.TrimSpace(managerID)
	if roomID == "" || managerID == "" {
		return lineup.Lineup{}, fmt.Errorf("%w: room_id and manager_id are required", ErrInvalidInput)
	}

	starters = normalizePlayerIDs(starters)
	if len(starters) != lineup.StartersCount {
		return lineup.Lineup{}, fmt.Errorf("%w: exactly %d starters required, got %d", ErrInvalidInput, lineup.StartersCount, len(starters))
	}

	var saved lineup.Lineup
	err := runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !state.Room.HasMember(managerID) {
			return nil, fmt.Errorf("%w: manager %s is not a room member", ErrUnauthorized, managerID)
		}

		owned := roster.OwnedBy(state.Slots, managerID)
		sortSlotsByTurn(owned)

		positions := make(map[string]player.Position, len(owned))
		rosterPlayers := make([]lineup.RosterPlayer, 0, len(owned))
		for _, slot := range owned {
			positions[slot.PlayerID] = slot.Position
			rosterPlayers = append(rosterPlayers, lineup.RosterPlayer{ID: slot.PlayerID, Position: slot.Position})
		}

		if err := lineup.CheckFormation(starters, positions); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		saved = lineup.Lineup{
			RoomID:    roomID,
			ManagerID: managerID,
			Starters:  starters,
			Bench:     benchOf(rosterPlayers, starters),
			UpdatedAt: s.now(),
		}
		if err := saved.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		return &engine.ChangeSet{Lineups: []lineup.Lineup{saved}}, nil
	})
	if err != nil {
		return lineup.Lineup{}, err
	}

	return saved, nil
}

func sortSlotsByTurn(slots []roster.Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Turn < slots[j].Turn })
}
