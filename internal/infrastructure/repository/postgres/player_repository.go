package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	qb "github.com/mando246-ah/football-fantasy-sub000/internal/platform/querybuilder"
)

// PlayerRepository reads the seeded player catalog. The catalog is immutable
// at runtime; only seeding writes to it.
type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListByRoom(ctx context.Context, roomID string) ([]player.Player, error) {
	query, args, err := playerBaseSelectBuilder().
		Where(qb.Eq("room_id", roomID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, roomID string, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	query, args, err := playerBaseSelectBuilder().
		Where(
			qb.Eq("room_id", roomID),
			qb.Expr("id = ANY(?)", pq.Array(playerIDs)),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
			return r.getByIDsLiteral(ctx, roomID, playerIDs)
		}
		return nil, fmt.Errorf("get players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

// getByIDsLiteral is the pgbouncer fallback path: some transaction-pooling
// setups lose the unnamed prepared statement between bind and execute, so
// the retry inlines every value as a quoted literal.
func (r *PlayerRepository) getByIDsLiteral(ctx context.Context, roomID string, playerIDs []string) ([]player.Player, error) {
	literals := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		literals = append(literals, quoteLiteral(id))
	}

	query, args, err := playerBaseSelectBuilder().
		Where(
			qb.EqLiteral("room_id", roomID),
			qb.Expr("id IN ("+strings.Join(literals, ", ")+")"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get players literal fallback query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get players literal fallback: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

// UpsertCatalog replaces or inserts the given players. Seeding only.
func (r *PlayerRepository) UpsertCatalog(ctx context.Context, players []player.Player) error {
	for _, item := range players {
		query, args, err := qb.InsertModel("players", playerToRow(item), `ON CONFLICT (room_id, id)
DO UPDATE SET
    name = EXCLUDED.name,
    position = EXCLUDED.position,
    team_name = EXCLUDED.team_name`)
		if err != nil {
			return fmt.Errorf("build player upsert: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert player %s: %w", item.ID, err)
		}
	}
	return nil
}

func playerBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("players")
}
