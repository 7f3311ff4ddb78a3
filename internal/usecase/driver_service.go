package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/logging"
)

// DriverConfig tunes the background drivers. Zero values fall back to the
// defaults below.
type DriverConfig struct {
	TickInterval time.Duration
	WorkerCount  int
}

// TickResult summarizes one driver pass across all rooms.
type TickResult struct {
	RoomCount         int `json:"room_count"`
	DraftStarts       int `json:"draft_starts"`
	AutoPicks         int `json:"auto_picks"`
	MarketTransitions int `json:"market_transitions"`
	Failures          int `json:"failures"`
}

// DriverService is the timer-driven invoker behind draft deadlines and
// market windows. It carries no business logic: each pass calls the
// scheduler's and market engine's idempotent operations and lets their
// precondition checks decide whether anything happens.
type DriverService struct {
	store     engine.Store
	draftSvc  *DraftService
	marketSvc *MarketService
	cfg       DriverConfig
	logger    *logging.Logger
}

func NewDriverService(
	store engine.Store,
	draftSvc *DraftService,
	marketSvc *MarketService,
	cfg DriverConfig,
	logger *logging.Logger,
) *DriverService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}

	return &DriverService{
		store:     store,
		draftSvc:  draftSvc,
		marketSvc: marketSvc,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run ticks until the context is canceled.
func (s *DriverService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	var wg conc.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wg.Go(func() {
				result, err := s.Tick(ctx)
				if err != nil {
					s.logger.ErrorContext(ctx, "driver tick failed", "error", err)
					return
				}
				if result.DraftStarts+result.AutoPicks+result.MarketTransitions > 0 {
					s.logger.InfoContext(ctx, "driver tick applied transitions",
						"rooms", result.RoomCount,
						"draft_starts", result.DraftStarts,
						"auto_picks", result.AutoPicks,
						"market_transitions", result.MarketTransitions,
						"failures", result.Failures,
					)
				}
			})
		}
	}
}

// Tick runs one pass over every room: maybe-start the draft, fire the
// auto-pick fallback, advance the market window. Safe to call more often
// than state changes; every sub-operation no-ops when its preconditions
// fail.
func (s *DriverService) Tick(ctx context.Context) (TickResult, error) {
	ctx, span := startUsecaseSpan(ctx, "DriverService.Tick")
	defer span.End()

	roomIDs, err := s.store.ListRoomIDs(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("list rooms: %w", err)
	}

	result := TickResult{RoomCount: len(roomIDs)}
	if len(roomIDs) == 0 {
		return result, nil
	}

	var draftStarts, autoPicks, marketTransitions, failures atomic.Int32

	pool, err := ants.NewPool(s.cfg.WorkerCount)
	if err != nil {
		return TickResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, roomID := range roomIDs {
		roomID := roomID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if ok, err := s.tickRoom(ctx, roomID, &draftStarts, &autoPicks, &marketTransitions); err != nil {
				failures.Add(1)
				s.logger.WarnContext(ctx, "driver room pass failed", "room_id", roomID, "error", err)
			} else if ok {
				s.logger.DebugContext(ctx, "driver room pass applied transitions", "room_id", roomID)
			}
		}); err != nil {
			workers.Done()
			return TickResult{}, fmt.Errorf("submit room to worker pool: %w", err)
		}
	}
	workers.Wait()

	result.DraftStarts = int(draftStarts.Load())
	result.AutoPicks = int(autoPicks.Load())
	result.MarketTransitions = int(marketTransitions.Load())
	result.Failures = int(failures.Load())

	return result, nil
}

func (s *DriverService) tickRoom(ctx context.Context, roomID string, draftStarts, autoPicks, marketTransitions *atomic.Int32) (bool, error) {
	changed := false

	before, exists, err := s.store.LoadState(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("load room state: %w", err)
	}
	if !exists {
		return false, nil
	}

	if !before.Room.Started {
		if err := s.draftSvc.MaybeStartDraft(ctx, roomID, "", true); err != nil {
			return changed, fmt.Errorf("maybe-start draft: %w", err)
		}
		after, exists, err := s.store.LoadState(ctx, roomID)
		if err == nil && exists && after.Room.Started {
			draftStarts.Add(1)
			changed = true
		}
	}

	if err := s.draftSvc.AutoPick(ctx, roomID, "", true); err != nil {
		if !isDriverNoop(err) {
			return changed, fmt.Errorf("auto-pick: %w", err)
		}
	} else {
		autoPicks.Add(1)
		changed = true
	}

	transitioned, err := s.marketSvc.AdvanceWindow(ctx, roomID)
	if err != nil {
		return changed, fmt.Errorf("advance market window: %w", err)
	}
	if transitioned {
		marketTransitions.Add(1)
		changed = true
	}

	return changed, nil
}

// isDriverNoop filters the precondition failures a timer pass expects to
// hit most of the time.
func isDriverNoop(err error) bool {
	return errors.Is(err, ErrDeadlineNotReached) ||
		errors.Is(err, ErrNotStarted) ||
		errors.Is(err, ErrRoundsComplete) ||
		errors.Is(err, ErrNotFound)
}
