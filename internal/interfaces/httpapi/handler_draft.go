package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
)

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRoom")
	defer span.End()

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	view, err := h.draftService.GetRoom(ctx, roomID)
	if err != nil {
		h.logger.WarnContext(ctx, "get room failed", "room_id", roomID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roomViewToDTO(ctx, view))
}

func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartDraft")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	if err := h.draftService.StartDraft(ctx, roomID, principal.ManagerID); err != nil {
		h.logger.WarnContext(ctx, "start draft failed", "room_id", roomID, "manager_id", principal.ManagerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	view, err := h.draftService.GetRoom(ctx, roomID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roomViewToDTO(ctx, view))
}

func (h *Handler) MaybeStartDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MaybeStartDraft")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	if err := h.draftService.MaybeStartDraft(ctx, roomID, principal.ManagerID, false); err != nil {
		h.logger.WarnContext(ctx, "maybe-start draft failed", "room_id", roomID, "error", err)
		writeError(ctx, w, err)
		return
	}

	view, err := h.draftService.GetRoom(ctx, roomID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roomViewToDTO(ctx, view))
}

func (h *Handler) CommitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CommitPick")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	var req commitPickRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.draftService.CommitPick(ctx, roomID, principal.ManagerID, req.PlayerID, player.Position(req.Position))
	if err != nil {
		h.logger.WarnContext(ctx, "commit pick failed",
			"room_id", roomID,
			"manager_id", principal.ManagerID,
			"player_id", req.PlayerID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	view, err := h.draftService.GetRoom(ctx, roomID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roomViewToDTO(ctx, view))
}

func (h *Handler) AutoPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AutoPick")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	if err := h.draftService.AutoPick(ctx, roomID, principal.ManagerID, false); err != nil {
		h.logger.WarnContext(ctx, "auto-pick failed", "room_id", roomID, "error", err)
		writeError(ctx, w, err)
		return
	}

	view, err := h.draftService.GetRoom(ctx, roomID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roomViewToDTO(ctx, view))
}

type commitPickRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Position string `json:"position" validate:"required,oneof=GK DEF MID ATT"`
}

type roomMemberDTO struct {
	ManagerID   string `json:"managerId"`
	DisplayName string `json:"displayName"`
}

type roomDTO struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	HostManagerID    string          `json:"hostManagerId"`
	Members          []roomMemberDTO `json:"members"`
	DraftOrder       []string        `json:"draftOrder,omitempty"`
	TurnIndex        int             `json:"turnIndex"`
	TurnDeadline     string          `json:"turnDeadline,omitempty"`
	TotalRounds      int             `json:"totalRounds"`
	Started          bool            `json:"started"`
	ScheduledStartAt string          `json:"scheduledStartAt,omitempty"`
	TurnDurationSecs int             `json:"turnDurationSecs"`
	Version          int64           `json:"version"`
	CurrentPicker    string          `json:"currentPicker,omitempty"`
	DraftComplete    bool            `json:"draftComplete"`
	UpdatedAt        string          `json:"updatedAt"`
}

func roomViewToDTO(ctx context.Context, view usecase.RoomView) roomDTO {
	ctx, span := startSpan(ctx, "httpapi.roomViewToDTO")
	defer span.End()

	members := make([]roomMemberDTO, 0, len(view.Room.Members))
	for _, m := range view.Room.Members {
		members = append(members, roomMemberDTO{
			ManagerID:   m.ManagerID,
			DisplayName: m.DisplayName,
		})
	}

	return roomDTO{
		ID:               view.Room.ID,
		Name:             view.Room.Name,
		HostManagerID:    view.Room.HostManagerID,
		Members:          members,
		DraftOrder:       append([]string(nil), view.Room.DraftOrder...),
		TurnIndex:        view.Room.TurnIndex,
		TurnDeadline:     formatOptionalTime(view.Room.TurnDeadline),
		TotalRounds:      view.Room.TotalRounds,
		Started:          view.Room.Started,
		ScheduledStartAt: formatOptionalTime(view.Room.ScheduledStartAt),
		TurnDurationSecs: int(view.Room.TurnDuration / time.Second),
		Version:          view.Room.Version,
		CurrentPicker:    view.CurrentPicker,
		DraftComplete:    view.DraftComplete,
		UpdatedAt:        view.Room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func formatOptionalTime(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
