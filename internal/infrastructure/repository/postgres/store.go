package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/trade"
	qb "github.com/mando246-ah/football-fantasy-sub000/internal/platform/querybuilder"
)

// Store persists room aggregates in Postgres. Commit applies a change set in
// one transaction guarded by the room version column: the version row update
// must match BaseVersion or the whole transaction rolls back with
// engine.ErrVersionConflict.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LoadState(ctx context.Context, roomID string) (engine.State, bool, error) {
	item, found, err := s.getRoom(ctx, roomID)
	if err != nil || !found {
		return engine.State{}, false, err
	}

	state := engine.State{
		Room:      item,
		Slots:     make(map[string]roster.Slot),
		Lineups:   make(map[string]lineup.Lineup),
		Interests: make(map[string]market.Interest),
		Trades:    make(map[string]trade.Offer),
	}

	if err := s.loadSlots(ctx, roomID, &state); err != nil {
		return engine.State{}, false, err
	}
	if err := s.loadLineups(ctx, roomID, &state); err != nil {
		return engine.State{}, false, err
	}
	if err := s.loadMarket(ctx, roomID, &state); err != nil {
		return engine.State{}, false, err
	}
	if err := s.loadInterests(ctx, roomID, &state); err != nil {
		return engine.State{}, false, err
	}
	if err := s.loadTrades(ctx, roomID, &state); err != nil {
		return engine.State{}, false, err
	}

	return state, true, nil
}

func (s *Store) ListRoomIDs(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("id").From("rooms").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list room ids query: %w", err)
	}

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list room ids: %w", err)
	}
	return ids, nil
}

func (s *Store) Commit(ctx context.Context, cs engine.ChangeSet) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := commitRoom(ctx, tx, cs); err != nil {
		return err
	}
	if err := commitSlots(ctx, tx, cs); err != nil {
		return err
	}
	if err := commitLineups(ctx, tx, cs); err != nil {
		return err
	}
	if err := commitMarket(ctx, tx, cs); err != nil {
		return err
	}
	if err := commitInterests(ctx, tx, cs); err != nil {
		return err
	}
	if err := commitTrades(ctx, tx, cs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit change set: %w", err)
	}
	return nil
}

func (s *Store) getRoom(ctx context.Context, roomID string) (room.Room, bool, error) {
	query, args, err := qb.Select("*").From("rooms").Where(qb.Eq("id", roomID)).ToSQL()
	if err != nil {
		return room.Room{}, false, fmt.Errorf("build get room query: %w", err)
	}

	var row roomTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return room.Room{}, false, nil
		}
		return room.Room{}, false, fmt.Errorf("get room: %w", err)
	}

	item, err := roomFromRow(row)
	if err != nil {
		return room.Room{}, false, err
	}
	return item, true, nil
}

func (s *Store) loadSlots(ctx context.Context, roomID string, state *engine.State) error {
	query, args, err := qb.Select("*").From("roster_slots").
		Where(qb.Eq("room_id", roomID)).
		OrderBy("turn").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build list roster slots query: %w", err)
	}

	var rows []slotTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("list roster slots: %w", err)
	}
	for _, row := range rows {
		slot := slotFromRow(row)
		state.Slots[slot.PlayerID] = slot
	}
	return nil
}

func (s *Store) loadLineups(ctx context.Context, roomID string, state *engine.State) error {
	query, args, err := qb.Select("*").From("lineups").
		Where(qb.Eq("room_id", roomID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build list lineups query: %w", err)
	}

	var rows []lineupTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("list lineups: %w", err)
	}
	for _, row := range rows {
		item := lineupFromRow(row)
		state.Lineups[item.ManagerID] = item
	}
	return nil
}

func (s *Store) loadMarket(ctx context.Context, roomID string, state *engine.State) error {
	query, args, err := qb.Select("*").From("markets").
		Where(qb.Eq("room_id", roomID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build get market query: %w", err)
	}

	var row marketTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("get market: %w", err)
	}

	item := marketFromRow(row)
	state.Market = &item
	return nil
}

func (s *Store) loadInterests(ctx context.Context, roomID string, state *engine.State) error {
	query, args, err := qb.Select("*").From("market_interests").
		Where(qb.Eq("room_id", roomID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build list market interests query: %w", err)
	}

	var rows []interestTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("list market interests: %w", err)
	}
	for _, row := range rows {
		item, err := interestFromRow(row)
		if err != nil {
			return err
		}
		state.Interests[item.ManagerID] = item
	}
	return nil
}

func (s *Store) loadTrades(ctx context.Context, roomID string, state *engine.State) error {
	query, args, err := qb.Select("*").From("trade_offers").
		Where(qb.Eq("room_id", roomID)).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build list trade offers query: %w", err)
	}

	var rows []tradeTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("list trade offers: %w", err)
	}
	for _, row := range rows {
		offer := tradeFromRow(row)
		state.Trades[offer.ID] = offer
	}
	return nil
}

// commitRoom is the compare-and-swap gate for the whole change set. It runs
// first so a stale BaseVersion aborts before any dependent writes happen.
func commitRoom(ctx context.Context, tx *sqlx.Tx, cs engine.ChangeSet) error {
	builder := qb.Update("rooms")

	if cs.Room != nil {
		row, err := roomToRow(*cs.Room)
		if err != nil {
			return err
		}
		builder.
			Set("name", row.Name).
			Set("host_manager_id", row.HostManagerID).
			SetExpr("members", "?::jsonb", row.Members).
			Set("draft_order", row.DraftOrder).
			Set("turn_index", row.TurnIndex).
			Set("turn_deadline", row.TurnDeadline).
			Set("total_rounds", row.TotalRounds).
			Set("started", row.Started).
			Set("scheduled_start_at", row.ScheduledStartAt).
			Set("turn_duration_secs", row.TurnDurationSecs).
			Set("updated_at", row.UpdatedAt)
	}

	query, args, err := builder.
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", cs.RoomID), qb.Eq("version", cs.BaseVersion)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build room version update: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update room version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read room update result: %w", err)
	}
	if affected == 0 {
		return engine.ErrVersionConflict
	}
	return nil
}

// Slot deletions run before upserts so one commit can move a player record
// between owners without a key collision.
func commitSlots(ctx context.Context, tx *sqlx.Tx, cs engine.ChangeSet) error {
	if len(cs.DeleteSlotIDs) > 0 {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM roster_slots WHERE room_id = $1 AND player_id = ANY($2)`,
			cs.RoomID, pq.Array(cs.DeleteSlotIDs),
		)
		if err != nil {
			return fmt.Errorf("delete roster slots: %w", err)
		}
	}

	for _, slot := range cs.Slots {
		query, args, err := qb.InsertModel("roster_slots", slotToRow(slot), `ON CONFLICT (room_id, player_id)
DO UPDATE SET
    owner_manager_id = EXCLUDED.owner_manager_id,
    turn = EXCLUDED.turn,
    round = EXCLUDED.round,
    position = EXCLUDED.position`)
		if err != nil {
			return fmt.Errorf("build roster slot upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert roster slot %s: %w", slot.PlayerID, err)
		}
	}
	return nil
}

func commitLineups(ctx context.Context, tx *sqlx.Tx, cs engine.ChangeSet) error {
	for _, item := range cs.Lineups {
		query, args, err := qb.InsertModel("lineups", lineupToRow(item), `ON CONFLICT (room_id, manager_id)
DO UPDATE SET
    starters = EXCLUDED.starters,
    bench = EXCLUDED.bench,
    updated_at = EXCLUDED.updated_at`)
		if err != nil {
			return fmt.Errorf("build lineup upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert lineup %s: %w", item.ManagerID, err)
		}
	}
	return nil
}

func commitMarket(ctx context.Context, tx *sqlx.Tx, cs engine.ChangeSet) error {
	if cs.Market == nil {
		return nil
	}

	query, args, err := qb.InsertModel("markets", marketToRow(*cs.Market), `ON CONFLICT (room_id)
DO UPDATE SET
    status = EXCLUDED.status,
    opens_at = EXCLUDED.opens_at,
    closes_at = EXCLUDED.closes_at,
    duration_secs = EXCLUDED.duration_secs,
    resolved_at = EXCLUDED.resolved_at,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build market upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert market: %w", err)
	}
	return nil
}

func commitInterests(ctx context.Context, tx *sqlx.Tx, cs engine.ChangeSet) error {
	if cs.ClearInterests {
		if _, err := tx.ExecContext(ctx, `DELETE FROM market_interests WHERE room_id = $1`, cs.RoomID); err != nil {
			return fmt.Errorf("clear market interests: %w", err)
		}
	}

	for _, interest := range cs.Interests {
		row, err := interestToRow(interest)
		if err != nil {
			return err
		}
		query, args, err := qb.InsertInto("market_interests").
			Columns("room_id", "manager_id", "choices", "submitted_at").
			Values(row.RoomID, row.ManagerID, row.Choices, row.SubmittedAt).
			Suffix(`ON CONFLICT (room_id, manager_id)
DO UPDATE SET
    choices = EXCLUDED.choices,
    submitted_at = EXCLUDED.submitted_at`).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build market interest upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert market interest %s: %w", interest.ManagerID, err)
		}
	}
	return nil
}

func commitTrades(ctx context.Context, tx *sqlx.Tx, cs engine.ChangeSet) error {
	for _, offer := range cs.Trades {
		query, args, err := qb.InsertModel("trade_offers", tradeToRow(offer), `ON CONFLICT (id)
DO UPDATE SET
    status = EXCLUDED.status,
    responded_at = EXCLUDED.responded_at,
    applied_at = EXCLUDED.applied_at`)
		if err != nil {
			return fmt.Errorf("build trade offer upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert trade offer %s: %w", offer.ID, err)
		}
	}
	return nil
}
