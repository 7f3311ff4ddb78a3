package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
)

func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMarket")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	view, err := h.marketService.GetMarket(ctx, roomID, principal.ManagerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get market failed", "room_id", roomID, "manager_id", principal.ManagerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, marketViewToDTO(ctx, view))
}

func (h *Handler) SubmitInterest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitInterest")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	var req submitInterestRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	choices := make([]market.Choice, 0, len(req.Choices))
	for _, c := range req.Choices {
		choices = append(choices, market.Choice{
			WantPlayerID:    c.WantPlayerID,
			SwapOutPlayerID: c.SwapOutPlayerID,
		})
	}

	if err := h.marketService.SubmitInterest(ctx, roomID, principal.ManagerID, choices); err != nil {
		h.logger.WarnContext(ctx, "submit interest failed", "room_id", roomID, "manager_id", principal.ManagerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	view, err := h.marketService.GetMarket(ctx, roomID, principal.ManagerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, marketViewToDTO(ctx, view))
}

func (h *Handler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveMarket")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	resolution, err := h.marketService.Resolve(ctx, roomID, principal.ManagerID)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve market failed", "room_id", roomID, "manager_id", principal.ManagerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolutionToDTO(ctx, resolution))
}

type submitInterestRequest struct {
	Choices []interestChoicePayload `json:"choices" validate:"required,min=1,max=2,dive"`
}

type interestChoicePayload struct {
	WantPlayerID    string `json:"wantPlayerId" validate:"required"`
	SwapOutPlayerID string `json:"swapOutPlayerId" validate:"required"`
}

type marketDTO struct {
	RoomID       string `json:"roomId"`
	Status       string `json:"status"`
	OpensAt      string `json:"opensAt,omitempty"`
	ClosesAt     string `json:"closesAt,omitempty"`
	DurationSecs int    `json:"durationSecs"`
	ResolvedAt   string `json:"resolvedAt,omitempty"`
	UpdatedAt    string `json:"updatedAt"`
}

type interestDTO struct {
	ManagerID   string                  `json:"managerId"`
	Choices     []interestChoicePayload `json:"choices"`
	SubmittedAt string                  `json:"submittedAt"`
}

type marketViewDTO struct {
	Market     marketDTO    `json:"market"`
	MyInterest *interestDTO `json:"myInterest,omitempty"`
}

type reassignmentDTO struct {
	ManagerID       string `json:"managerId"`
	WantPlayerID    string `json:"wantPlayerId"`
	SwapOutPlayerID string `json:"swapOutPlayerId"`
}

type rejectedChoiceDTO struct {
	ManagerID       string `json:"managerId"`
	WantPlayerID    string `json:"wantPlayerId"`
	SwapOutPlayerID string `json:"swapOutPlayerId"`
	Reason          string `json:"reason"`
}

type resolutionDTO struct {
	RoomID        string              `json:"roomId"`
	Accepted      []reassignmentDTO   `json:"accepted"`
	Rejected      []rejectedChoiceDTO `json:"rejected"`
	PriorityOrder []string            `json:"priorityOrder"`
	ResolvedAt    string              `json:"resolvedAt"`
}

func marketToDTO(ctx context.Context, v market.Market) marketDTO {
	ctx, span := startSpan(ctx, "httpapi.marketToDTO")
	defer span.End()

	return marketDTO{
		RoomID:       v.RoomID,
		Status:       string(v.Status),
		OpensAt:      formatOptionalTime(v.OpensAt),
		ClosesAt:     formatOptionalTime(v.ClosesAt),
		DurationSecs: int(v.Duration / time.Second),
		ResolvedAt:   formatOptionalTime(v.ResolvedAt),
		UpdatedAt:    v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func marketViewToDTO(ctx context.Context, view usecase.MarketView) marketViewDTO {
	ctx, span := startSpan(ctx, "httpapi.marketViewToDTO")
	defer span.End()

	dto := marketViewDTO{Market: marketToDTO(ctx, view.Market)}
	if view.MyInterest != nil {
		choices := make([]interestChoicePayload, 0, len(view.MyInterest.Choices))
		for _, c := range view.MyInterest.Choices {
			choices = append(choices, interestChoicePayload{
				WantPlayerID:    c.WantPlayerID,
				SwapOutPlayerID: c.SwapOutPlayerID,
			})
		}
		dto.MyInterest = &interestDTO{
			ManagerID:   view.MyInterest.ManagerID,
			Choices:     choices,
			SubmittedAt: view.MyInterest.SubmittedAt.UTC().Format(time.RFC3339),
		}
	}

	return dto
}

func resolutionToDTO(ctx context.Context, v market.Resolution) resolutionDTO {
	ctx, span := startSpan(ctx, "httpapi.resolutionToDTO")
	defer span.End()

	accepted := make([]reassignmentDTO, 0, len(v.Accepted))
	for _, a := range v.Accepted {
		accepted = append(accepted, reassignmentDTO{
			ManagerID:       a.ManagerID,
			WantPlayerID:    a.WantPlayerID,
			SwapOutPlayerID: a.SwapOutPlayerID,
		})
	}

	rejected := make([]rejectedChoiceDTO, 0, len(v.Rejected))
	for _, r := range v.Rejected {
		rejected = append(rejected, rejectedChoiceDTO{
			ManagerID:       r.ManagerID,
			WantPlayerID:    r.Choice.WantPlayerID,
			SwapOutPlayerID: r.Choice.SwapOutPlayerID,
			Reason:          r.Reason,
		})
	}

	return resolutionDTO{
		RoomID:        v.RoomID,
		Accepted:      accepted,
		Rejected:      rejected,
		PriorityOrder: append([]string(nil), v.PriorityOrder...),
		ResolvedAt:    v.ResolvedAt.UTC().Format(time.RFC3339),
	}
}
