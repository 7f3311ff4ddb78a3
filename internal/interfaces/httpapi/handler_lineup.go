package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/lineup"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
)

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRoster")
	defer span.End()

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	slots, err := h.lineupService.GetRoster(ctx, roomID)
	if err != nil {
		h.logger.WarnContext(ctx, "get roster failed", "room_id", roomID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rosterSlotDTO, 0, len(slots))
	for _, s := range slots {
		items = append(items, rosterSlotToDTO(ctx, s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMyLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyLineup")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	item, exists, err := h.lineupService.GetLineup(ctx, roomID, principal.ManagerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get lineup failed", "room_id", roomID, "manager_id", principal.ManagerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !exists {
		writeSuccess(ctx, w, http.StatusOK, nil)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineupToDTO(ctx, item))
}

func (h *Handler) SaveMyLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveMyLineup")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	var req saveLineupRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.lineupService.SaveLineup(ctx, roomID, principal.ManagerID, req.Starters)
	if err != nil {
		h.logger.WarnContext(ctx, "save lineup failed", "room_id", roomID, "manager_id", principal.ManagerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineupToDTO(ctx, item))
}

type saveLineupRequest struct {
	Starters []string `json:"starters" validate:"required,len=11,dive,required"`
}

type rosterSlotDTO struct {
	PlayerID       string `json:"playerId"`
	OwnerManagerID string `json:"ownerManagerId"`
	Turn           int    `json:"turn"`
	Round          int    `json:"round"`
	Position       string `json:"position"`
}

type lineupDTO struct {
	RoomID    string   `json:"roomId"`
	ManagerID string   `json:"managerId"`
	Starters  []string `json:"starters"`
	Bench     []string `json:"bench"`
	UpdatedAt string   `json:"updatedAt"`
}

func rosterSlotToDTO(ctx context.Context, v roster.Slot) rosterSlotDTO {
	ctx, span := startSpan(ctx, "httpapi.rosterSlotToDTO")
	defer span.End()

	return rosterSlotDTO{
		PlayerID:       v.PlayerID,
		OwnerManagerID: v.OwnerManagerID,
		Turn:           v.Turn,
		Round:          v.Round,
		Position:       string(v.Position),
	}
}

func lineupToDTO(ctx context.Context, item lineup.Lineup) lineupDTO {
	ctx, span := startSpan(ctx, "httpapi.lineupToDTO")
	defer span.End()

	return lineupDTO{
		RoomID:    item.RoomID,
		ManagerID: item.ManagerID,
		Starters:  append([]string(nil), item.Starters...),
		Bench:     append([]string(nil), item.Bench...),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
