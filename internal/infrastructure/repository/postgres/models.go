package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/trade"
)

// memberDoc is the JSONB shape of one room member. Members travel as a
// jsonb document instead of a join table because the engine always reads
// and writes them with the room row.
type memberDoc struct {
	ManagerID   string `json:"manager_id"`
	DisplayName string `json:"display_name"`
}

type choiceDoc struct {
	WantPlayerID    string `json:"want_player_id"`
	SwapOutPlayerID string `json:"swap_out_player_id"`
}

type roomTableModel struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	HostManagerID    string         `db:"host_manager_id"`
	Members          string         `db:"members"`
	DraftOrder       pq.StringArray `db:"draft_order"`
	TurnIndex        int            `db:"turn_index"`
	TurnDeadline     *time.Time     `db:"turn_deadline"`
	TotalRounds      int            `db:"total_rounds"`
	Started          bool           `db:"started"`
	ScheduledStartAt *time.Time     `db:"scheduled_start_at"`
	TurnDurationSecs int64          `db:"turn_duration_secs"`
	Version          int64          `db:"version"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func roomToRow(item room.Room) (roomTableModel, error) {
	docs := make([]memberDoc, 0, len(item.Members))
	for _, m := range item.Members {
		docs = append(docs, memberDoc{ManagerID: m.ManagerID, DisplayName: m.DisplayName})
	}
	members, err := sonic.MarshalString(docs)
	if err != nil {
		return roomTableModel{}, fmt.Errorf("encode room members: %w", err)
	}

	return roomTableModel{
		ID:               item.ID,
		Name:             item.Name,
		HostManagerID:    item.HostManagerID,
		Members:          members,
		DraftOrder:       pq.StringArray(item.DraftOrder),
		TurnIndex:        item.TurnIndex,
		TurnDeadline:     item.TurnDeadline,
		TotalRounds:      item.TotalRounds,
		Started:          item.Started,
		ScheduledStartAt: item.ScheduledStartAt,
		TurnDurationSecs: int64(item.TurnDuration / time.Second),
		Version:          item.Version,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}, nil
}

func roomFromRow(row roomTableModel) (room.Room, error) {
	var docs []memberDoc
	if row.Members != "" {
		if err := sonic.UnmarshalString(row.Members, &docs); err != nil {
			return room.Room{}, fmt.Errorf("decode room members: %w", err)
		}
	}
	members := make([]room.Member, 0, len(docs))
	for _, d := range docs {
		members = append(members, room.Member{ManagerID: d.ManagerID, DisplayName: d.DisplayName})
	}

	return room.Room{
		ID:               row.ID,
		Name:             row.Name,
		HostManagerID:    row.HostManagerID,
		Members:          members,
		DraftOrder:       append([]string(nil), row.DraftOrder...),
		TurnIndex:        row.TurnIndex,
		TurnDeadline:     row.TurnDeadline,
		TotalRounds:      row.TotalRounds,
		Started:          row.Started,
		ScheduledStartAt: row.ScheduledStartAt,
		TurnDuration:     time.Duration(row.TurnDurationSecs) * time.Second,
		Version:          row.Version,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}

type slotTableModel struct {
	RoomID         string `db:"room_id"`
	PlayerID       string `db:"player_id"`
	OwnerManagerID string `db:"owner_manager_id"`
	Turn           int    `db:"turn"`
	Round          int    `db:"round"`
	Position       string `db:"position"`
}

func slotToRow(item roster.Slot) slotTableModel {
	return slotTableModel{
		RoomID:         item.RoomID,
		PlayerID:       item.PlayerID,
		OwnerManagerID: item.OwnerManagerID,
		Turn:           item.Turn,
		Round:          item.Round,
		Position:       string(item.Position),
	}
}

func slotFromRow(row slotTableModel) roster.Slot {
	return roster.Slot{
		RoomID:         row.RoomID,
		PlayerID:       row.PlayerID,
		OwnerManagerID: row.OwnerManagerID,
		Turn:           row.Turn,
		Round:          row.Round,
		Position:       player.Position(row.Position),
	}
}

type lineupTableModel struct {
	RoomID    string         `db:"room_id"`
	ManagerID string         `db:"manager_id"`
	Starters  pq.StringArray `db:"starters"`
	Bench     pq.StringArray `db:"bench"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func lineupToRow(item lineup.Lineup) lineupTableModel {
	return lineupTableModel{
		RoomID:    item.RoomID,
		ManagerID: item.ManagerID,
		Starters:  pq.StringArray(item.Starters),
		Bench:     pq.StringArray(item.Bench),
		UpdatedAt: item.UpdatedAt,
	}
}

func lineupFromRow(row lineupTableModel) lineup.Lineup {
	return lineup.Lineup{
		RoomID:    row.RoomID,
		ManagerID: row.ManagerID,
		Starters:  append([]string(nil), row.Starters...),
		Bench:     append([]string(nil), row.Bench...),
		UpdatedAt: row.UpdatedAt,
	}
}

type marketTableModel struct {
	RoomID       string     `db:"room_id"`
	Status       string     `db:"status"`
	OpensAt      *time.Time `db:"opens_at"`
	ClosesAt     *time.Time `db:"closes_at"`
	DurationSecs int64      `db:"duration_secs"`
	ResolvedAt   *time.Time `db:"resolved_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func marketToRow(item market.Market) marketTableModel {
	return marketTableModel{
		RoomID:       item.RoomID,
		Status:       string(item.Status),
		OpensAt:      item.OpensAt,
		ClosesAt:     item.ClosesAt,
		DurationSecs: int64(item.Duration / time.Second),
		ResolvedAt:   item.ResolvedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func marketFromRow(row marketTableModel) market.Market {
	return market.Market{
		RoomID:     row.RoomID,
		Status:     market.Status(row.Status),
		OpensAt:    row.OpensAt,
		ClosesAt:   row.ClosesAt,
		Duration:   time.Duration(row.DurationSecs) * time.Second,
		ResolvedAt: row.ResolvedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

type interestTableModel struct {
	RoomID      string    `db:"room_id"`
	ManagerID   string    `db:"manager_id"`
	Choices     string    `db:"choices"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func interestToRow(item market.Interest) (interestTableModel, error) {
	docs := make([]choiceDoc, 0, len(item.Choices))
	for _, c := range item.Choices {
		docs = append(docs, choiceDoc{WantPlayerID: c.WantPlayerID, SwapOutPlayerID: c.SwapOutPlayerID})
	}
	choices, err := sonic.MarshalString(docs)
	if err != nil {
		return interestTableModel{}, fmt.Errorf("encode interest choices: %w", err)
	}

	return interestTableModel{
		RoomID:      item.RoomID,
		ManagerID:   item.ManagerID,
		Choices:     choices,
		SubmittedAt: item.SubmittedAt,
	}, nil
}

func interestFromRow(row interestTableModel) (market.Interest, error) {
	var docs []choiceDoc
	if row.Choices != "" {
		if err := sonic.UnmarshalString(row.Choices, &docs); err != nil {
			return market.Interest{}, fmt.Errorf("decode interest choices: %w", err)
		}
	}
	choices := make([]market.Choice, 0, len(docs))
	for _, d := range docs {
		choices = append(choices, market.Choice{WantPlayerID: d.WantPlayerID, SwapOutPlayerID: d.SwapOutPlayerID})
	}

	return market.Interest{
		RoomID:      row.RoomID,
		ManagerID:   row.ManagerID,
		Choices:     choices,
		SubmittedAt: row.SubmittedAt,
	}, nil
}

type tradeTableModel struct {
	ID            string         `db:"id"`
	RoomID        string         `db:"room_id"`
	FromManagerID string         `db:"from_manager_id"`
	ToManagerID   string         `db:"to_manager_id"`
	Give          pq.StringArray `db:"give"`
	Receive       pq.StringArray `db:"receive"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	RespondedAt   *time.Time     `db:"responded_at"`
	AppliedAt     *time.Time     `db:"applied_at"`
}

func tradeToRow(item trade.Offer) tradeTableModel {
	return tradeTableModel{
		ID:            item.ID,
		RoomID:        item.RoomID,
		FromManagerID: item.FromManagerID,
		ToManagerID:   item.ToManagerID,
		Give:          pq.StringArray(item.Give),
		Receive:       pq.StringArray(item.Receive),
		Status:        string(item.Status),
		CreatedAt:     item.CreatedAt,
		RespondedAt:   item.RespondedAt,
		AppliedAt:     item.AppliedAt,
	}
}

func tradeFromRow(row tradeTableModel) trade.Offer {
	return trade.Offer{
		ID:            row.ID,
		RoomID:        row.RoomID,
		FromManagerID: row.FromManagerID,
		ToManagerID:   row.ToManagerID,
		Give:          append([]string(nil), row.Give...),
		Receive:       append([]string(nil), row.Receive...),
		Status:        trade.Status(row.Status),
		CreatedAt:     row.CreatedAt,
		RespondedAt:   row.RespondedAt,
		AppliedAt:     row.AppliedAt,
	}
}

type playerTableModel struct {
	RoomID   string `db:"room_id"`
	ID       string `db:"id"`
	Name     string `db:"name"`
	Position string `db:"position"`
	TeamName string `db:"team_name"`
}

func playerToRow(item player.Player) playerTableModel {
	return playerTableModel{
		RoomID:   item.RoomID,
		ID:       item.ID,
		Name:     item.Name,
		Position: string(item.Position),
		TeamName: item.TeamName,
	}
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		RoomID:   row.RoomID,
		ID:       row.ID,
		Name:     row.Name,
		Position: player.Position(row.Position),
		TeamName: row.TeamName,
	}
}
