package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/standings"
	"github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/repository/memory"
)

type stubStandings map[string]standings.Entry

func (s stubStandings) ForRoom(_ context.Context, _ string) (map[string]standings.Entry, error) {
	return s, nil
}

type stubLiveStatus map[string]struct{}

func (s stubLiveStatus) LiveStarters(_ context.Context, _ string) (map[string]struct{}, error) {
	return s, nil
}

func ownSquad(t *testing.T, state *engine.State, managerID, gk string, defs, mids, atts []string, turnBase int) {
	t.Helper()

	turn := turnBase
	own := func(playerID string, pos player.Position) {
		state.Slots[playerID] = roster.Slot{
			PlayerID:       playerID,
			RoomID:         state.Room.ID,
			OwnerManagerID: managerID,
			Turn:           turn,
			Round:          turn / len(state.Room.Members),
			Position:       pos,
		}
		turn++
	}

	own(gk, player.PositionGoalkeeper)
	for _, id := range defs {
		own(id, player.PositionDefender)
	}
	for _, id := range mids {
		own(id, player.PositionMidfielder)
	}
	for _, id := range atts {
		own(id, player.PositionAttacker)
	}
}

func seedMarketState(t *testing.T, status market.Status) (*memory.Store, *memory.PlayerRepository) {
	t.Helper()

	state := engine.State{
		Room: room.Room{
			ID:            "room-1",
			Name:          "Test Room",
			HostManagerID: "mgr-x",
			Members: []room.Member{
				{ManagerID: "mgr-x", DisplayName: "X"},
				{ManagerID: "mgr-y", DisplayName: "Y"},
			},
			DraftOrder:   []string{"mgr-x", "mgr-y"},
			TotalRounds:  14,
			TurnIndex:    28,
			Started:      true,
			TurnDuration: 120 * time.Second,
		},
		Slots: map[string]roster.Slot{},
		Lineups: map[string]lineup.Lineup{
			"mgr-x": {
				RoomID:    "room-1",
				ManagerID: "mgr-x",
				Starters: []string{
					"gk-0",
					"def-0", "def-1", "def-2", "def-3",
					"mid-0", "mid-1", "mid-2", "mid-3",
					"att-0", "att-1",
				},
				Bench: []string{"def-4", "mid-4", "att-2"},
			},
		},
		Market: &market.Market{
			RoomID:   "room-1",
			Status:   status,
			Duration: 48 * time.Hour,
		},
	}

	ownSquad(t, &state, "mgr-x",
		"gk-0",
		[]string{"def-0", "def-1", "def-2", "def-3", "def-4"},
		[]string{"mid-0", "mid-1", "mid-2", "mid-3", "mid-4"},
		[]string{"att-0", "att-1", "att-2"},
		0,
	)
	ownSquad(t, &state, "mgr-y",
		"gk-1",
		[]string{"def-5", "def-6", "def-7", "def-8", "def-9"},
		[]string{"mid-5", "mid-6", "mid-7", "mid-8", "mid-9"},
		[]string{"att-3", "att-4", "att-5"},
		14,
	)

	store := memory.NewStore()
	store.PutState(state)
	playerRepo := memory.NewPlayerRepository(seedTestPool(t, "room-1"))

	return store, playerRepo
}

func newTestMarketService(store *memory.Store, playerRepo *memory.PlayerRepository, table stubStandings, live stubLiveStatus) *MarketService {
	if table == nil {
		table = stubStandings{}
	}
	if live == nil {
		live = stubLiveStatus{}
	}
	svc := NewMarketService(store, playerRepo, table, live)
	svc.now = func() time.Time { return testClock }
	return svc
}

func TestMarketService_SubmitInterest(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusScheduled)
	svc := newTestMarketService(store, playerRepo, nil, nil)

	choices := []market.Choice{{WantPlayerID: "att-6", SwapOutPlayerID: "att-0"}}
	err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", choices)
	if !errors.Is(err, ErrMarketNotOpen) {
		t.Fatalf("submit against a scheduled market should fail, got %v", err)
	}

	store, playerRepo = seedMarketState(t, market.StatusOpen)
	svc = newTestMarketService(store, playerRepo, nil, nil)

	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", choices); err != nil {
		t.Fatalf("submit interest: %v", err)
	}

	err = svc.SubmitInterest(t.Context(), "room-1", "mgr-z", choices)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-member submit should fail, got %v", err)
	}

	// Resubmission overwrites wholesale.
	replacement := []market.Choice{{WantPlayerID: "mid-10", SwapOutPlayerID: "mid-0"}}
	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", replacement); err != nil {
		t.Fatalf("resubmit interest: %v", err)
	}
	view, err := svc.GetMarket(t.Context(), "room-1", "mgr-x")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if view.MyInterest == nil || len(view.MyInterest.Choices) != 1 || view.MyInterest.Choices[0].WantPlayerID != "mid-10" {
		t.Fatalf("resubmission should replace choices, got %+v", view.MyInterest)
	}
}

func TestMarketService_SubmitInterestValidation(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusOpen)
	svc := newTestMarketService(store, playerRepo, nil, nil)

	tooMany := []market.Choice{
		{WantPlayerID: "att-6", SwapOutPlayerID: "att-0"},
		{WantPlayerID: "att-7", SwapOutPlayerID: "att-1"},
		{WantPlayerID: "mid-10", SwapOutPlayerID: "mid-0"},
	}
	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", tooMany); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("three choices should be rejected, got %v", err)
	}

	same := []market.Choice{{WantPlayerID: "att-0", SwapOutPlayerID: "att-0"}}
	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", same); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want==swapOut should be rejected, got %v", err)
	}
}

func TestMarketService_AdvanceWindow(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusScheduled)
	svc := newTestMarketService(store, playerRepo, nil, nil)

	state, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	opens := testClock.Add(-time.Minute)
	state.Market.OpensAt = &opens
	store.PutState(state)

	transitioned, err := svc.AdvanceWindow(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("advance window: %v", err)
	}
	if !transitioned {
		t.Fatal("scheduled window past its open time should open")
	}

	view, err := svc.GetMarket(t.Context(), "room-1", "")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if view.Market.Status != market.StatusOpen {
		t.Fatalf("market should be open, got %s", view.Market.Status)
	}
	if view.Market.ClosesAt == nil || !view.Market.ClosesAt.Equal(opens.Add(48*time.Hour)) {
		t.Fatalf("close time should be opensAt+duration, got %v", view.Market.ClosesAt)
	}

	// Second pass is a no-op until the close time arrives.
	transitioned, err = svc.AdvanceWindow(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("advance window: %v", err)
	}
	if transitioned {
		t.Fatal("open window before its close time should not transition")
	}

	svc.now = func() time.Time { return testClock.Add(72 * time.Hour) }
	transitioned, err = svc.AdvanceWindow(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("advance window: %v", err)
	}
	if !transitioned {
		t.Fatal("open window past its close time should close")
	}
	view, err = svc.GetMarket(t.Context(), "room-1", "")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if view.Market.Status != market.StatusClosed {
		t.Fatalf("market should be closed, got %s", view.Market.Status)
	}
}

func TestMarketService_ResolvePriority(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusOpen)
	table := stubStandings{
		"mgr-x": {ManagerID: "mgr-x", TablePoints: 0},
		"mgr-y": {ManagerID: "mgr-y", TablePoints: 3},
	}
	svc := newTestMarketService(store, playerRepo, table, nil)

	// Both want att-6; mgr-y submitted first but mgr-x sits lower in the
	// table and must win.
	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-y", []market.Choice{{WantPlayerID: "att-6", SwapOutPlayerID: "att-3"}}); err != nil {
		t.Fatalf("submit y: %v", err)
	}
	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", []market.Choice{{WantPlayerID: "att-6", SwapOutPlayerID: "att-0"}}); err != nil {
		t.Fatalf("submit x: %v", err)
	}

	if _, err := svc.Resolve(t.Context(), "room-1", "mgr-y"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-host resolve should fail, got %v", err)
	}

	resolution, err := svc.Resolve(t.Context(), "room-1", "mgr-x")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(resolution.Accepted) != 1 {
		t.Fatalf("expected one accepted swap, got %+v", resolution.Accepted)
	}
	if resolution.Accepted[0].ManagerID != "mgr-x" || resolution.Accepted[0].WantPlayerID != "att-6" {
		t.Fatalf("lower table points should win the contested player, got %+v", resolution.Accepted[0])
	}
	if len(resolution.Rejected) != 1 || resolution.Rejected[0].Reason != market.ReasonWantNotAvailable {
		t.Fatalf("loser should be rejected as unavailable, got %+v", resolution.Rejected)
	}

	state, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if _, gone := state.Slots["att-0"]; gone {
		t.Fatal("swapped-out slot should be rekeyed away")
	}
	slot, ok := state.Slots["att-6"]
	if !ok || slot.OwnerManagerID != "mgr-x" || slot.Position != player.PositionAttacker {
		t.Fatalf("swapped-in slot wrong: %+v", slot)
	}
	if state.Market.Status != market.StatusResolved {
		t.Fatalf("market should be resolved, got %s", state.Market.Status)
	}
	if len(state.Interests) != 0 {
		t.Fatal("interests should be cleared after resolution")
	}

	// The winner's lineup is repaired: att-6 replaces att-0 and stays legal.
	repaired := state.Lineups["mgr-x"]
	positions := map[string]player.Position{}
	for id, s := range state.Slots {
		positions[id] = s.Position
	}
	if err := lineup.CheckFormation(repaired.Starters, positions); err != nil {
		t.Fatalf("repaired lineup illegal: %v", err)
	}
	foundSwap := false
	for _, id := range repaired.Starters {
		if id == "att-0" {
			t.Fatal("swapped-out player must leave the lineup")
		}
		if id == "att-6" {
			foundSwap = true
		}
	}
	if !foundSwap {
		t.Fatal("swapped-in player should start")
	}
}

func TestMarketService_ResolveRejectsLiveStarter(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusOpen)
	live := stubLiveStatus{"att-0": {}}
	svc := newTestMarketService(store, playerRepo, nil, live)

	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", []market.Choice{{WantPlayerID: "att-6", SwapOutPlayerID: "att-0"}}); err != nil {
		t.Fatalf("submit interest: %v", err)
	}

	resolution, err := svc.Resolve(t.Context(), "room-1", "mgr-x")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(resolution.Accepted) != 0 {
		t.Fatalf("live starter swap must not be accepted, got %+v", resolution.Accepted)
	}
	if len(resolution.Rejected) != 1 || resolution.Rejected[0].Reason != market.ReasonSwapOutLive {
		t.Fatalf("expected live-starter rejection, got %+v", resolution.Rejected)
	}

	state, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if _, still := state.Slots["att-0"]; !still {
		t.Fatal("rejected choice must leave the roster unchanged")
	}
}

func TestMarketService_ResolveRejectionReasons(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusOpen)
	svc := newTestMarketService(store, playerRepo, nil, nil)

	// att-3 belongs to mgr-y, gk-0 is already drafted.
	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", []market.Choice{
		{WantPlayerID: "att-6", SwapOutPlayerID: "att-3"},
		{WantPlayerID: "gk-0", SwapOutPlayerID: "att-0"},
	}); err != nil {
		t.Fatalf("submit interest: %v", err)
	}

	resolution, err := svc.Resolve(t.Context(), "room-1", "mgr-x")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(resolution.Accepted) != 0 {
		t.Fatalf("no choice should be accepted, got %+v", resolution.Accepted)
	}
	reasons := map[string]string{}
	for _, r := range resolution.Rejected {
		reasons[r.Choice.WantPlayerID] = r.Reason
	}
	if reasons["att-6"] != market.ReasonSwapOutNotOwned {
		t.Fatalf("swapping out an unowned player should reject, got %q", reasons["att-6"])
	}
	if reasons["gk-0"] != market.ReasonWantNotAvailable {
		t.Fatalf("wanting a drafted player should reject, got %q", reasons["gk-0"])
	}
}

func TestMarketService_ResolveNotOpen(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusScheduled)
	svc := newTestMarketService(store, playerRepo, nil, nil)

	if _, err := svc.Resolve(t.Context(), "room-1", "mgr-x"); !errors.Is(err, ErrMarketNotOpen) {
		t.Fatalf("resolving a scheduled market should fail, got %v", err)
	}
}

func TestResolveInterests_Deterministic(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusOpen)

	state, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	state.Interests["mgr-x"] = market.Interest{
		RoomID: "room-1", ManagerID: "mgr-x",
		Choices:     []market.Choice{{WantPlayerID: "att-6", SwapOutPlayerID: "att-0"}},
		SubmittedAt: testClock,
	}
	state.Interests["mgr-y"] = market.Interest{
		RoomID: "room-1", ManagerID: "mgr-y",
		Choices:     []market.Choice{{WantPlayerID: "att-6", SwapOutPlayerID: "att-3"}, {WantPlayerID: "mid-10", SwapOutPlayerID: "mid-5"}},
		SubmittedAt: testClock.Add(time.Second),
	}

	pool, err := playerRepo.ListByRoom(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	catalog := make(map[string]player.Player, len(pool))
	for _, p := range pool {
		catalog[p.ID] = p
	}
	table := map[string]standings.Entry{
		"mgr-x": {ManagerID: "mgr-x", TablePoints: 3},
		"mgr-y": {ManagerID: "mgr-y", TablePoints: 3},
	}

	first := resolveInterests(state.Clone(), catalog, table, nil)
	for i := 0; i < 5; i++ {
		again := resolveInterests(state.Clone(), catalog, table, nil)
		if !reflect.DeepEqual(first.resolution, again.resolution) {
			t.Fatalf("run %d diverged:\nfirst: %+v\nagain: %+v", i, first.resolution, again.resolution)
		}
	}

	// Equal table points: earlier submission wins the contested player.
	if len(first.resolution.Accepted) == 0 || first.resolution.Accepted[0].ManagerID != "mgr-x" {
		t.Fatalf("earlier submission should break the tie, got %+v", first.resolution.Accepted)
	}
}

func TestMarketService_ResolveSecondChoiceSeesFirst(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusOpen)
	svc := newTestMarketService(store, playerRepo, nil, nil)

	// Second choice swaps out the player acquired by the first. The working
	// ownership view makes it valid within the same run.
	if err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", []market.Choice{
		{WantPlayerID: "att-6", SwapOutPlayerID: "att-0"},
		{WantPlayerID: "att-7", SwapOutPlayerID: "att-6"},
	}); err != nil {
		t.Fatalf("submit interest: %v", err)
	}

	resolution, err := svc.Resolve(t.Context(), "room-1", "mgr-x")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolution.Accepted) != 2 {
		t.Fatalf("both chained choices should be accepted, got %+v", resolution)
	}
}

func TestMarketService_InterestAfterResolveStartsIsFencedOff(t *testing.T) {
	store, playerRepo := seedMarketState(t, market.StatusResolving)
	svc := newTestMarketService(store, playerRepo, nil, nil)

	err := svc.SubmitInterest(t.Context(), "room-1", "mgr-x", []market.Choice{{WantPlayerID: "att-6", SwapOutPlayerID: "att-0"}})
	if !errors.Is(err, ErrMarketNotOpen) {
		t.Fatalf("submit during resolution should fail, got %v", err)
	}
}
