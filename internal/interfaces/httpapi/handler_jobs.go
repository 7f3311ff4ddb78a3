package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
)

// RunTickJob executes one scheduler pass on demand. The same pass runs on a
// timer inside the driver loop; this endpoint exists for cron-style external
// schedulers and operational replays.
func (h *Handler) RunTickJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunTickJob")
	defer span.End()

	if h.driverService == nil {
		writeError(ctx, w, fmt.Errorf("%w: driver service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.driverService.Tick(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "tick job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// ApplyTradeJob settles an accepted offer with coordinator authority, for
// schedulers that sweep accepted trades without a host session.
func (h *Handler) ApplyTradeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyTradeJob")
	defer span.End()

	roomID := strings.TrimSpace(r.PathValue("roomID"))
	tradeID := strings.TrimSpace(r.PathValue("tradeID"))
	offer, err := h.tradeService.Apply(ctx, roomID, tradeID, "", true)
	if err != nil {
		h.logger.WarnContext(ctx, "apply trade job failed",
			"room_id", roomID,
			"trade_id", tradeID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeOfferToDTO(ctx, offer))
}
