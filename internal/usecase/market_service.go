package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/standings"
)

// MarketView is the read model for a room's market plus the caller's own
// pending interest, if any.
type MarketView struct {
	Market     market.Market
	MyInterest *market.Interest
}

type MarketService struct {
	store      engine.Store
	playerRepo player.Repository
	standings  standings.Provider
	liveStatus standings.LiveStatusProvider
	now        func() time.Time
}

func NewMarketService(
	store engine.Store,
	playerRepo player.Repository,
	standingsProvider standings.Provider,
	liveStatusProvider standings.LiveStatusProvider,
) *MarketService {
	return &MarketService{
		store:      store,
		playerRepo: playerRepo,
		standings:  standingsProvider,
		liveStatus: liveStatusProvider,
		now:        time.Now,
	}
}

func (s *MarketService) GetMarket(ctx context.Context, roomID, managerID string) (MarketView, error) {
	ctx, span := startUsecaseSpan(ctx, "MarketService.GetMarket")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return MarketView{}, fmt.Errorf("%w: room_id is required", ErrInvalidInput)
	}

	state, exists, err := s.store.LoadState(ctx, roomID)
	if err != nil {
		return MarketView{}, fmt.Errorf("load room state: %w", err)
	}
	if !exists {
		return MarketView{}, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	if state.Market == nil {
		return MarketView{}, fmt.Errorf("%w: room %s has no market", ErrNotFound, roomID)
	}

	view := MarketView{Market: *state.Market}
	if interest, ok := state.Interests[strings.TrimSpace(managerID)]; ok {
		view.MyInterest = &interest
	}

	return view, nil
}

// SubmitInterest stores a manager's swap choices for the open window. A
// resubmission replaces the previous interest wholesale.
func (s *MarketService) SubmitInterest(ctx context.Context, roomID, managerID string, choices []market.Choice) error {
	ctx, span := startUsecaseSpan(ctx, "MarketService.SubmitInterest")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	managerID = strings.TrimSpace(managerID)
	if roomID == "" || managerID == "" {
		return fmt.Errorf("%w: room_id and manager_id are required", ErrInvalidInput)
	}

	interest := market.Interest{
		RoomID:    roomID,
		ManagerID: managerID,
		Choices:   choices,
	}
	if err := interest.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !state.Room.HasMember(managerID) {
			return nil, fmt.Errorf("%w: manager %s is not a room member", ErrUnauthorized, managerID)
		}
		if state.Market == nil || state.Market.Status != market.StatusOpen {
			return nil, fmt.Errorf("%w: room %s", ErrMarketNotOpen, roomID)
		}

		interest.SubmittedAt = s.now()
		return &engine.ChangeSet{Interests: []market.Interest{interest}}, nil
	})
}

// AdvanceWindow applies the time-driven market transitions: a scheduled
// window opens once its open time arrives, an open window closes once its
// close time passes. Idempotent; returns true when a transition committed.
func (s *MarketService) AdvanceWindow(ctx context.Context, roomID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "MarketService.AdvanceWindow")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return false, fmt.Errorf("%w: room_id is required", ErrInvalidInput)
	}

	transitioned := false
	err := runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		transitioned = false
		if state.Market == nil {
			return nil, nil
		}

		now := s.now()
		next := *state.Market
		switch {
		case next.ShouldOpen(now):
			next.Status = market.StatusOpen
			if next.ClosesAt == nil && next.Duration > 0 {
				closes := next.OpensAt.Add(next.Duration)
				next.ClosesAt = &closes
			}
		case next.ShouldClose(now):
			next.Status = market.StatusClosed
		default:
			return nil, nil
		}

		next.UpdatedAt = now
		transitioned = true
		return &engine.ChangeSet{Market: &next}, nil
	})

	return transitioned, err
}

// Resolve runs the full market resolution for a room. It is host-only and
// two-phase: the window is first flipped to resolving, fencing off late
// interest submissions, then standings and live status are read from the
// external providers, and finally the computed reassignments, lineup
// repairs, interest wipe and resolved status commit as one unit. A run
// interrupted after the first phase can be re-triggered and resumes.
func (s *MarketService) Resolve(ctx context.Context, roomID, callerManagerID string) (market.Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "MarketService.Resolve")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	callerManagerID = strings.TrimSpace(callerManagerID)
	if roomID == "" || callerManagerID == "" {
		return market.Resolution{}, fmt.Errorf("%w: room_id and manager_id are required", ErrInvalidInput)
	}

	err := runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !state.Room.IsHost(callerManagerID) {
			return nil, fmt.Errorf("%w: only the host may resolve the market", ErrUnauthorized)
		}
		if state.Market == nil {
			return nil, fmt.Errorf("%w: room %s has no market", ErrNotFound, roomID)
		}
		switch state.Market.Status {
		case market.StatusOpen:
			next := *state.Market
			next.Status = market.StatusResolving
			next.UpdatedAt = s.now()
			return &engine.ChangeSet{Market: &next}, nil
		case market.StatusResolving:
			// Resuming an interrupted run.
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: market is %s", ErrMarketNotOpen, state.Market.Status)
		}
	})
	if err != nil {
		return market.Resolution{}, err
	}

	catalog, err := s.loadCatalog(ctx, roomID)
	if err != nil {
		return market.Resolution{}, err
	}
	standingsByManager, err := s.standings.ForRoom(ctx, roomID)
	if err != nil {
		return market.Resolution{}, fmt.Errorf("%w: fetch standings: %v", ErrDependencyUnavailable, err)
	}
	liveStarters, err := s.liveStatus.LiveStarters(ctx, roomID)
	if err != nil {
		return market.Resolution{}, fmt.Errorf("%w: fetch live status: %v", ErrDependencyUnavailable, err)
	}

	var resolution market.Resolution
	err = runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if state.Market == nil || state.Market.Status != market.StatusResolving {
			return nil, fmt.Errorf("%w: market is no longer resolving", ErrMarketNotOpen)
		}

		now := s.now()
		outcome := resolveInterests(state, catalog, standingsByManager, liveStarters)
		resolution = outcome.resolution
		resolution.RoomID = roomID
		resolution.ResolvedAt = now

		next := *state.Market
		next.Status = market.StatusResolved
		next.ResolvedAt = &now
		next.UpdatedAt = now

		return &engine.ChangeSet{
			Market:         &next,
			Slots:          outcome.slotUpserts,
			DeleteSlotIDs:  outcome.slotDeletes,
			Lineups:        outcome.lineupUpserts,
			ClearInterests: true,
		}, nil
	})
	if err != nil {
		return market.Resolution{}, err
	}

	return resolution, nil
}

func (s *MarketService) loadCatalog(ctx context.Context, roomID string) (map[string]player.Player, error) {
	pool, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room players: %w", err)
	}
	catalog := make(map[string]player.Player, len(pool))
	for _, p := range pool {
		catalog[p.ID] = p
	}
	return catalog, nil
}

type resolutionOutcome struct {
	resolution    market.Resolution
	slotUpserts   []roster.Slot
	slotDeletes   []string
	lineupUpserts []lineup.Lineup
}

// resolveInterests computes the deterministic outcome of one resolution run
// against a snapshot. It never mutates the snapshot maps: re-running against
// the same pre-state, standings and live set yields the same outcome.
func resolveInterests(
	state engine.State,
	catalog map[string]player.Player,
	standingsByManager map[string]standings.Entry,
	liveStarters map[string]struct{},
) resolutionOutcome {
	order := priorityOrder(state.Interests, standingsByManager)

	undrafted := make(map[string]struct{}, len(catalog))
	for id := range catalog {
		if _, drafted := state.Slots[id]; !drafted {
			undrafted[id] = struct{}{}
		}
	}

	// Working ownership view, updated as choices are accepted so a manager's
	// second choice sees the first one's effect.
	owner := make(map[string]string, len(state.Slots))
	for id, slot := range state.Slots {
		owner[id] = slot.OwnerManagerID
	}

	outcome := resolutionOutcome{
		resolution: market.Resolution{PriorityOrder: order},
	}
	swapsByManager := make(map[string][]market.Reassignment)

	for _, managerID := range order {
		interest := state.Interests[managerID]
		for _, choice := range interest.Choices {
			reject := func(reason string) {
				outcome.resolution.Rejected = append(outcome.resolution.Rejected, market.RejectedChoice{
					ManagerID: managerID,
					Choice:    choice,
					Reason:    reason,
				})
			}

			if choice.WantPlayerID == choice.SwapOutPlayerID {
				reject(market.ReasonSameTarget)
				continue
			}
			if _, available := undrafted[choice.WantPlayerID]; !available {
				reject(market.ReasonWantNotAvailable)
				continue
			}
			if owner[choice.SwapOutPlayerID] != managerID {
				reject(market.ReasonSwapOutNotOwned)
				continue
			}
			if isLiveStarter(state.Lineups[managerID], choice.SwapOutPlayerID, liveStarters) {
				reject(market.ReasonSwapOutLive)
				continue
			}

			delete(undrafted, choice.WantPlayerID)
			delete(owner, choice.SwapOutPlayerID)
			owner[choice.WantPlayerID] = managerID

			swap := market.Reassignment{
				ManagerID:       managerID,
				WantPlayerID:    choice.WantPlayerID,
				SwapOutPlayerID: choice.SwapOutPlayerID,
			}
			outcome.resolution.Accepted = append(outcome.resolution.Accepted, swap)
			swapsByManager[managerID] = append(swapsByManager[managerID], swap)
		}
	}

	// Materialize the accepted swaps: each affected slot keeps its draft
	// provenance but is rekeyed to the incoming player, then every touched
	// manager gets a repaired lineup.
	nextSlots := make(map[string]roster.Slot, len(state.Slots))
	for id, slot := range state.Slots {
		nextSlots[id] = slot
	}
	for _, swap := range outcome.resolution.Accepted {
		slot := nextSlots[swap.SwapOutPlayerID]
		delete(nextSlots, swap.SwapOutPlayerID)
		slot.PlayerID = swap.WantPlayerID
		slot.Position = catalog[swap.WantPlayerID].Position
		nextSlots[swap.WantPlayerID] = slot
	}

	// Diff against the snapshot so chained swaps within one run do not leave
	// intermediate slots behind.
	deleted := make([]string, 0, len(outcome.resolution.Accepted))
	for id := range state.Slots {
		if _, still := nextSlots[id]; !still {
			deleted = append(deleted, id)
		}
	}
	sort.Strings(deleted)
	outcome.slotDeletes = deleted

	upserted := make([]string, 0, len(outcome.resolution.Accepted))
	for id, slot := range nextSlots {
		if prev, ok := state.Slots[id]; !ok || prev != slot {
			upserted = append(upserted, id)
		}
	}
	sort.Strings(upserted)
	for _, id := range upserted {
		outcome.slotUpserts = append(outcome.slotUpserts, nextSlots[id])
	}

	for _, managerID := range order {
		swaps := swapsByManager[managerID]
		if len(swaps) == 0 {
			continue
		}

		prev := append([]string(nil), state.Lineups[managerID].Starters...)
		for _, swap := range swaps {
			for i, id := range prev {
				if id == swap.SwapOutPlayerID {
					prev[i] = swap.WantPlayerID
				}
			}
		}

		rosterPlayers := sortedRoster(nextSlots, managerID)
		repaired := lineup.Repair(rosterPlayers, prev)

		next := state.Lineups[managerID]
		next.RoomID = state.Room.ID
		next.ManagerID = managerID
		next.Starters = repaired
		next.Bench = benchOf(rosterPlayers, repaired)
		outcome.lineupUpserts = append(outcome.lineupUpserts, next)
	}

	return outcome
}

// priorityOrder ranks interested managers: ascending table points, then
// ascending total fantasy points, then earliest submission, then lexical id.
// Lowest-ranked managers pick first.
func priorityOrder(interests map[string]market.Interest, standingsByManager map[string]standings.Entry) []string {
	order := make([]string, 0, len(interests))
	for managerID := range interests {
		order = append(order, managerID)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := standingsByManager[order[i]], standingsByManager[order[j]]
		if a.TablePoints != b.TablePoints {
			return a.TablePoints < b.TablePoints
		}
		if a.TotalFantasyPoints != b.TotalFantasyPoints {
			return a.TotalFantasyPoints < b.TotalFantasyPoints
		}
		ta, tb := interests[order[i]].SubmittedAt, interests[order[j]].SubmittedAt
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return order[i] < order[j]
	})

	return order
}

func isLiveStarter(l lineup.Lineup, playerID string, liveStarters map[string]struct{}) bool {
	if _, live := liveStarters[playerID]; !live {
		return false
	}
	for _, id := range l.Starters {
		if id == playerID {
			return true
		}
	}
	return false
}

// sortedRoster returns a manager's post-swap roster ordered by draft turn so
// lineup repair and its fallback stay deterministic.
func sortedRoster(slots map[string]roster.Slot, managerID string) []lineup.RosterPlayer {
	owned := roster.OwnedBy(slots, managerID)
	sort.Slice(owned, func(i, j int) bool { return owned[i].Turn < owned[j].Turn })

	out := make([]lineup.RosterPlayer, 0, len(owned))
	for _, s := range owned {
		out = append(out, lineup.RosterPlayer{ID: s.PlayerID, Position: s.Position})
	}
	return out
}

func benchOf(rosterPlayers []lineup.RosterPlayer, starters []string) []string {
	starting := make(map[string]struct{}, len(starters))
	for _, id := range starters {
		starting[id] = struct{}{}
	}

	bench := make([]string, 0, len(rosterPlayers))
	for _, rp := range rosterPlayers {
		if _, ok := starting[rp.ID]; !ok {
			bench = append(bench, rp.ID)
		}
	}
	return bench
}
