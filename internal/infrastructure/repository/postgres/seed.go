package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/repository/memory"
	qb "github.com/mando246-ah/football-fantasy-sub000/internal/platform/querybuilder"
)

// BootstrapSeed loads the demo room and its player catalog on an empty
// database. A non-empty rooms table means a real deployment and the seed is
// skipped entirely.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM rooms`); err != nil {
		return fmt.Errorf("count rooms for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	state := memory.SeedRoom(time.Now().UTC())

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row, err := roomToRow(state.Room)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel("rooms", row, `ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build seed room insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("seed room %s: %w", state.Room.ID, err)
	}

	if state.Market != nil {
		query, args, err := qb.InsertModel("markets", marketToRow(*state.Market), `ON CONFLICT (room_id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("build seed market insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed market %s: %w", state.Room.ID, err)
		}
	}

	for _, item := range memory.SeedPlayers(state.Room.ID) {
		query, args, err := qb.InsertModel("players", playerToRow(item), `ON CONFLICT (room_id, id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("build seed player %s insert: %w", item.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed player %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap seed: %w", err)
	}
	return nil
}
