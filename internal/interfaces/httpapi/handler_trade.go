package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/trade"
	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
)

func (h *Handler) ProposeTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProposeTrade")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	var req proposeTradeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	offer, err := h.tradeService.Propose(ctx, usecase.ProposeTradeInput{
		RoomID:        roomID,
		FromManagerID: principal.ManagerID,
		ToManagerID:   req.ToManagerID,
		Give:          req.Give,
		Receive:       req.Receive,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "propose trade failed", "room_id", roomID, "manager_id", principal.ManagerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tradeOfferToDTO(ctx, offer))
}

func (h *Handler) RespondTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RespondTrade")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	tradeID := strings.TrimSpace(r.PathValue("tradeID"))
	var req respondTradeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	offer, err := h.tradeService.Respond(ctx, roomID, tradeID, principal.ManagerID, trade.Action(req.Action))
	if err != nil {
		h.logger.WarnContext(ctx, "respond trade failed",
			"room_id", roomID,
			"trade_id", tradeID,
			"manager_id", principal.ManagerID,
			"action", req.Action,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeOfferToDTO(ctx, offer))
}

func (h *Handler) ApplyTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyTrade")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	tradeID := strings.TrimSpace(r.PathValue("tradeID"))
	offer, err := h.tradeService.Apply(ctx, roomID, tradeID, principal.ManagerID, false)
	if err != nil {
		h.logger.WarnContext(ctx, "apply trade failed",
			"room_id", roomID,
			"trade_id", tradeID,
			"manager_id", principal.ManagerID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeOfferToDTO(ctx, offer))
}

type proposeTradeRequest struct {
	ToManagerID string   `json:"toManagerId" validate:"required"`
	Give        []string `json:"give" validate:"required,min=1,max=2,dive,required"`
	Receive     []string `json:"receive" validate:"required,min=1,max=2,dive,required"`
}

type respondTradeRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject cancel"`
}

type tradeOfferDTO struct {
	ID            string   `json:"id"`
	RoomID        string   `json:"roomId"`
	FromManagerID string   `json:"fromManagerId"`
	ToManagerID   string   `json:"toManagerId"`
	Give          []string `json:"give"`
	Receive       []string `json:"receive"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"createdAt"`
	RespondedAt   string   `json:"respondedAt,omitempty"`
	AppliedAt     string   `json:"appliedAt,omitempty"`
}

func tradeOfferToDTO(ctx context.Context, v trade.Offer) tradeOfferDTO {
	ctx, span := startSpan(ctx, "httpapi.tradeOfferToDTO")
	defer span.End()

	return tradeOfferDTO{
		ID:            v.ID,
		RoomID:        v.RoomID,
		FromManagerID: v.FromManagerID,
		ToManagerID:   v.ToManagerID,
		Give:          append([]string(nil), v.Give...),
		Receive:       append([]string(nil), v.Receive...),
		Status:        string(v.Status),
		CreatedAt:     v.CreatedAt.UTC().Format(time.RFC3339),
		RespondedAt:   formatOptionalTime(v.RespondedAt),
		AppliedAt:     formatOptionalTime(v.AppliedAt),
	}
}
