package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/logging"
	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
)

type Handler struct {
	draftService  *usecase.DraftService
	marketService *usecase.MarketService
	tradeService  *usecase.TradeService
	lineupService *usecase.LineupService
	driverService *usecase.DriverService
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	draftService *usecase.DraftService,
	marketService *usecase.MarketService,
	tradeService *usecase.TradeService,
	lineupService *usecase.LineupService,
	driverService *usecase.DriverService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		draftService:  draftService,
		marketService: marketService,
		tradeService:  tradeService,
		lineupService: lineupService,
		driverService: driverService,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
