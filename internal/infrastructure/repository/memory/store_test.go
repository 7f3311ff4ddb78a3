package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
)

func seedStore(t *testing.T) *Store {
	t.Helper()

	store := NewStore()
	store.PutState(SeedRoom(time.Now().UTC()))
	return store
}

func TestStoreCommit_BumpsVersion(t *testing.T) {
	t.Parallel()

	store := seedStore(t)

	before, ok, err := store.LoadState(t.Context(), RoomIDDemo)
	if err != nil || !ok {
		t.Fatalf("load seed room: ok=%v err=%v", ok, err)
	}

	next := before.Room
	next.Name = "Renamed League"
	if err := store.Commit(t.Context(), engine.ChangeSet{
		RoomID:      RoomIDDemo,
		BaseVersion: before.Room.Version,
		Room:        &next,
	}); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	after, _, err := store.LoadState(t.Context(), RoomIDDemo)
	if err != nil {
		t.Fatalf("reload room: %v", err)
	}
	if after.Room.Version != before.Room.Version+1 {
		t.Fatalf("expected version %d, got %d", before.Room.Version+1, after.Room.Version)
	}
	if after.Room.Name != "Renamed League" {
		t.Fatalf("room update lost: %s", after.Room.Name)
	}
}

func TestStoreCommit_StaleBaseVersionConflicts(t *testing.T) {
	t.Parallel()

	store := seedStore(t)

	snapshot, _, err := store.LoadState(t.Context(), RoomIDDemo)
	if err != nil {
		t.Fatalf("load seed room: %v", err)
	}

	if err := store.Commit(t.Context(), engine.ChangeSet{
		RoomID:      RoomIDDemo,
		BaseVersion: snapshot.Room.Version,
	}); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	err = store.Commit(t.Context(), engine.ChangeSet{
		RoomID:      RoomIDDemo,
		BaseVersion: snapshot.Room.Version,
	})
	if !errors.Is(err, engine.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on stale base, got %v", err)
	}
}

func TestStoreCommit_UnknownRoomConflicts(t *testing.T) {
	t.Parallel()

	store := NewStore()

	err := store.Commit(t.Context(), engine.ChangeSet{RoomID: "room-missing", BaseVersion: 0})
	if !errors.Is(err, engine.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for unknown room, got %v", err)
	}
}

func TestStoreCommit_DeleteRunsBeforeUpsert(t *testing.T) {
	t.Parallel()

	store := seedStore(t)

	snapshot, _, err := store.LoadState(t.Context(), RoomIDDemo)
	if err != nil {
		t.Fatalf("load seed room: %v", err)
	}

	original := roster.Slot{PlayerID: "mid-01", RoomID: RoomIDDemo, OwnerManagerID: "mgr-ayu", Position: "MID"}
	if err := store.Commit(t.Context(), engine.ChangeSet{
		RoomID:      RoomIDDemo,
		BaseVersion: snapshot.Room.Version,
		Slots:       []roster.Slot{original},
	}); err != nil {
		t.Fatalf("seed slot commit failed: %v", err)
	}

	// A swap rekeys the ownership record inside one change set.
	swapped := original
	swapped.PlayerID = "mid-02"
	if err := store.Commit(t.Context(), engine.ChangeSet{
		RoomID:        RoomIDDemo,
		BaseVersion:   snapshot.Room.Version + 1,
		DeleteSlotIDs: []string{"mid-01"},
		Slots:         []roster.Slot{swapped},
	}); err != nil {
		t.Fatalf("swap commit failed: %v", err)
	}

	after, _, err := store.LoadState(t.Context(), RoomIDDemo)
	if err != nil {
		t.Fatalf("reload room: %v", err)
	}
	if _, ok := after.Slots["mid-01"]; ok {
		t.Fatal("expected mid-01 slot to be deleted")
	}
	slot, ok := after.Slots["mid-02"]
	if !ok {
		t.Fatal("expected mid-02 slot to exist after swap")
	}
	if slot.OwnerManagerID != "mgr-ayu" {
		t.Fatalf("ownership lost across rekey: %s", slot.OwnerManagerID)
	}
}

func TestStoreLoadState_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	store := seedStore(t)

	first, _, err := store.LoadState(t.Context(), RoomIDDemo)
	if err != nil {
		t.Fatalf("load seed room: %v", err)
	}
	first.Room.Members[0].DisplayName = "Mutated"
	first.Slots["hack"] = roster.Slot{PlayerID: "hack"}

	second, _, err := store.LoadState(t.Context(), RoomIDDemo)
	if err != nil {
		t.Fatalf("reload room: %v", err)
	}
	if second.Room.Members[0].DisplayName == "Mutated" {
		t.Fatal("snapshot mutation leaked into the store")
	}
	if _, ok := second.Slots["hack"]; ok {
		t.Fatal("slot mutation leaked into the store")
	}
}

func TestStoreListRoomIDs_Sorted(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	store.PutState(engine.State{Room: room.Room{ID: "room-aaa"}})
	store.PutState(engine.State{Room: room.Room{ID: "room-zzz"}})

	ids, err := store.ListRoomIDs(t.Context())
	if err != nil {
		t.Fatalf("list room ids: %v", err)
	}
	want := []string{"room-aaa", RoomIDDemo, "room-zzz"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d rooms, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected order at %d: got %s want %s", i, ids[i], want[i])
		}
	}
}
