package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
)

// casRetryLimit bounds how often a lost optimistic write is retried before
// the conflict surfaces to the caller.
const casRetryLimit = 5

// runRoomTxn executes fn as an optimistic read-modify-write transaction:
// load a snapshot, let fn validate and build a ChangeSet against it, commit
// under compare-and-swap, and retry from a fresh snapshot when the commit
// lost a race. fn returning a nil ChangeSet commits nothing (precondition
// no-op paths).
func runRoomTxn(ctx context.Context, store engine.Store, roomID string, fn func(engine.State) (*engine.ChangeSet, error)) error {
	for attempt := 0; attempt < casRetryLimit; attempt++ {
		state, exists, err := store.LoadState(ctx, roomID)
		if err != nil {
			return fmt.Errorf("load room state: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
		}

		cs, err := fn(state)
		if err != nil {
			return err
		}
		if cs == nil {
			return nil
		}
		cs.RoomID = roomID
		cs.BaseVersion = state.Room.Version

		err = store.Commit(ctx, *cs)
		if err == nil {
			return nil
		}
		if !errors.Is(err, engine.ErrVersionConflict) {
			return fmt.Errorf("commit room state: %w", err)
		}
	}

	return fmt.Errorf("commit room state after %d attempts: %w", casRetryLimit, engine.ErrVersionConflict)
}
