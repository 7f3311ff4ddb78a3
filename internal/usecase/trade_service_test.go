package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/trade"
	"github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/repository/memory"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/id"
)

func newTestTradeService(store *memory.Store) *TradeService {
	svc := NewTradeService(store, id.NewRandomGenerator())
	svc.now = func() time.Time { return testClock }
	return svc
}

func proposeTestTrade(t *testing.T, svc *TradeService) trade.Offer {
	t.Helper()

	offer, err := svc.Propose(t.Context(), ProposeTradeInput{
		RoomID:        "room-1",
		FromManagerID: "mgr-x",
		ToManagerID:   "mgr-y",
		Give:          []string{"att-0"},
		Receive:       []string{"att-3"},
	})
	if err != nil {
		t.Fatalf("propose trade: %v", err)
	}
	return offer
}

func TestTradeService_ProposeValidation(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)

	cases := []struct {
		name  string
		input ProposeTradeInput
	}{
		{"mismatched sides", ProposeTradeInput{RoomID: "room-1", FromManagerID: "mgr-x", ToManagerID: "mgr-y", Give: []string{"att-0"}, Receive: []string{"att-3", "att-4"}}},
		{"empty give", ProposeTradeInput{RoomID: "room-1", FromManagerID: "mgr-x", ToManagerID: "mgr-y", Receive: []string{"att-3"}}},
		{"three a side", ProposeTradeInput{RoomID: "room-1", FromManagerID: "mgr-x", ToManagerID: "mgr-y", Give: []string{"att-0", "att-1", "att-2"}, Receive: []string{"att-3", "att-4", "att-5"}}},
		{"self trade", ProposeTradeInput{RoomID: "room-1", FromManagerID: "mgr-x", ToManagerID: "mgr-x", Give: []string{"att-0"}, Receive: []string{"att-1"}}},
		{"give not owned", ProposeTradeInput{RoomID: "room-1", FromManagerID: "mgr-x", ToManagerID: "mgr-y", Give: []string{"att-3"}, Receive: []string{"att-0"}}},
		{"duplicate in give", ProposeTradeInput{RoomID: "room-1", FromManagerID: "mgr-x", ToManagerID: "mgr-y", Give: []string{"att-0", "att-0"}, Receive: []string{"att-3", "att-4"}}},
		{"duplicate across sides", ProposeTradeInput{RoomID: "room-1", FromManagerID: "mgr-x", ToManagerID: "mgr-y", Give: []string{"att-0"}, Receive: []string{"att-0"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Propose(t.Context(), tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestTradeService_DuplicateGiveCannotNetExtraPlayer(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)

	before, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}

	// One repeated give id against two distinct receive ids would swap
	// pairwise into a 1-for-2 if it ever reached apply.
	_, err = svc.Propose(t.Context(), ProposeTradeInput{
		RoomID:        "room-1",
		FromManagerID: "mgr-x",
		ToManagerID:   "mgr-y",
		Give:          []string{"att-0", "att-0"},
		Receive:       []string{"att-3", "att-4"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for duplicate give ids, got %v", err)
	}

	after, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if len(after.Trades) != len(before.Trades) {
		t.Fatalf("rejected offer was persisted: %d trades", len(after.Trades))
	}
	for playerID, slot := range before.Slots {
		if after.Slots[playerID].OwnerManagerID != slot.OwnerManagerID {
			t.Fatalf("ownership of %s moved from %s to %s", playerID, slot.OwnerManagerID, after.Slots[playerID].OwnerManagerID)
		}
	}
}

func TestTradeService_RespondAuthorization(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)
	offer := proposeTestTrade(t, svc)

	if _, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-x", trade.ActionAccept); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("sender accept should fail, got %v", err)
	}
	if _, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-y", trade.ActionCancel); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("recipient cancel should fail, got %v", err)
	}

	accepted, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-y", trade.ActionAccept)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != trade.StatusAccepted {
		t.Fatalf("offer should be accepted, got %s", accepted.Status)
	}

	// Responding again is a no-op returning the current status.
	again, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-y", trade.ActionReject)
	if err != nil {
		t.Fatalf("respond on accepted offer: %v", err)
	}
	if again.Status != trade.StatusAccepted {
		t.Fatalf("terminal respond should not change status, got %s", again.Status)
	}
}

func TestTradeService_RespondCancel(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)
	offer := proposeTestTrade(t, svc)

	canceled, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-x", trade.ActionCancel)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.Status != trade.StatusCanceled {
		t.Fatalf("offer should be canceled, got %s", canceled.Status)
	}
}

func TestTradeService_ApplySwapsSlots(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)
	offer := proposeTestTrade(t, svc)

	if _, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-y", trade.ActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := svc.Apply(t.Context(), "room-1", offer.ID, "mgr-y", false); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-host apply should fail, got %v", err)
	}

	applied, err := svc.Apply(t.Context(), "room-1", offer.ID, "mgr-x", false)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Status != trade.StatusCompleted {
		t.Fatalf("offer should complete, got %s", applied.Status)
	}
	if applied.AppliedAt == nil {
		t.Fatal("apply should stamp AppliedAt")
	}

	state, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if got := state.Slots["att-3"].OwnerManagerID; got != "mgr-x" {
		t.Fatalf("att-3 should now belong to mgr-x, got %s", got)
	}
	if got := state.Slots["att-0"].OwnerManagerID; got != "mgr-y" {
		t.Fatalf("att-0 should now belong to mgr-y, got %s", got)
	}
}

func TestTradeService_ApplyIdempotent(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)
	offer := proposeTestTrade(t, svc)

	if _, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-y", trade.ActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.Apply(t.Context(), "room-1", offer.ID, "mgr-x", false); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	before, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}

	second, err := svc.Apply(t.Context(), "room-1", offer.ID, "mgr-x", false)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if second.Status != trade.StatusCompleted {
		t.Fatalf("second apply should report completed, got %s", second.Status)
	}

	after, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if after.Room.Version != before.Room.Version {
		t.Fatal("second apply must not commit anything")
	}
	if after.Slots["att-3"].OwnerManagerID != "mgr-x" {
		t.Fatal("second apply must not swap back")
	}
}

func TestTradeService_ApplyDegradesOnOwnershipChange(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)
	offer := proposeTestTrade(t, svc)

	if _, err := svc.Respond(t.Context(), "room-1", offer.ID, "mgr-y", trade.ActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// A market swap moves att-0 away before the trade applies.
	state, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	moved := state.Slots["att-0"]
	moved.OwnerManagerID = "mgr-y"
	state.Slots["att-0"] = moved
	store.PutState(state)

	applied, err := svc.Apply(t.Context(), "room-1", offer.ID, "", true)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Status != trade.StatusRejected {
		t.Fatalf("stale offer should degrade to rejected, got %s", applied.Status)
	}
	if applied.AppliedAt != nil {
		t.Fatal("degraded offer must not carry an apply timestamp")
	}

	after, _, err := store.LoadState(t.Context(), "room-1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if after.Slots["att-3"].OwnerManagerID != "mgr-y" {
		t.Fatal("no partial swap may happen")
	}
}

func TestTradeService_ApplyPendingFails(t *testing.T) {
	store, _ := seedMarketState(t, market.StatusClosed)
	svc := newTestTradeService(store)
	offer := proposeTestTrade(t, svc)

	if _, err := svc.Apply(t.Context(), "room-1", offer.ID, "mgr-x", false); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("applying a pending offer should fail, got %v", err)
	}
}
