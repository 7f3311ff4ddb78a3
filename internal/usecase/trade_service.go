package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/roster"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/trade"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/id"
)

type ProposeTradeInput struct {
	RoomID        string
	FromManagerID string
	ToManagerID   string
	Give          []string
	Receive       []string
}

type TradeService struct {
	store engine.Store
	idGen id.Generator
	now   func() time.Time
}

func NewTradeService(store engine.Store, idGen id.Generator) *TradeService {
	return &TradeService{
		store: store,
		idGen: idGen,
		now:   time.Now,
	}
}

// Propose creates a pending offer after checking both sides currently own
// what they are putting up. Ownership is re-checked at apply time since it
// may change in between.
func (s *TradeService) Propose(ctx context.Context, input ProposeTradeInput) (trade.Offer, error) {
	ctx, span := startUsecaseSpan(ctx, "TradeService.Propose")
	defer span.End()

	input.RoomID = strings.TrimSpace(input.RoomID)
	input.FromManagerID = strings.TrimSpace(input.FromManagerID)
	input.ToManagerID = strings.TrimSpace(input.ToManagerID)

	tradeID, err := s.idGen.NewID()
	if err != nil {
		return trade.Offer{}, fmt.Errorf("generate trade id: %w", err)
	}

	offer := trade.Offer{
		ID:            tradeID,
		RoomID:        input.RoomID,
		FromManagerID: input.FromManagerID,
		ToManagerID:   input.ToManagerID,
		Give:          normalizePlayerIDs(input.Give),
		Receive:       normalizePlayerIDs(input.Receive),
		Status:        trade.StatusPending,
	}
	if err := offer.Validate(); err != nil {
		return trade.Offer{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = runRoomTxn(ctx, s.store, input.RoomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !state.Room.HasMember(offer.FromManagerID) || !state.Room.HasMember(offer.ToManagerID) {
			return nil, fmt.Errorf("%w: both managers must be room members", ErrUnauthorized)
		}
		if err := checkOwnership(state.Slots, offer.FromManagerID, offer.Give); err != nil {
			return nil, err
		}
		if err := checkOwnership(state.Slots, offer.ToManagerID, offer.Receive); err != nil {
			return nil, err
		}

		offer.CreatedAt = s.now()
		return &engine.ChangeSet{Trades: []trade.Offer{offer}}, nil
	})
	if err != nil {
		return trade.Offer{}, err
	}

	return offer, nil
}

// Respond lets the recipient accept or reject a pending offer, or the sender
// cancel it. Responding to an offer already out of pending is an idempotent
// no-op that returns the current status.
func (s *TradeService) Respond(ctx context.Context, roomID, tradeID, callerManagerID string, action trade.Action) (trade.Offer, error) {
	ctx, span := startUsecaseSpan(ctx, "TradeService.Respond")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	tradeID = strings.TrimSpace(tradeID)
	callerManagerID = strings.TrimSpace(callerManagerID)
	if roomID == "" || tradeID == "" || callerManagerID == "" {
		return trade.Offer{}, fmt.Errorf("%w: room_id, trade_id and manager_id are required", ErrInvalidInput)
	}

	var result trade.Offer
	err := runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		offer, ok := state.Trades[tradeID]
		if !ok {
			return nil, fmt.Errorf("%w: trade %s", ErrNotFound, tradeID)
		}
		if offer.Status != trade.StatusPending {
			result = offer
			return nil, nil
		}

		switch action {
		case trade.ActionAccept:
			if callerManagerID != offer.ToManagerID {
				return nil, fmt.Errorf("%w: only the recipient may accept", ErrUnauthorized)
			}
			offer.Status = trade.StatusAccepted
		case trade.ActionReject:
			if callerManagerID != offer.ToManagerID {
				return nil, fmt.Errorf("%w: only the recipient may reject", ErrUnauthorized)
			}
			offer.Status = trade.StatusRejected
		case trade.ActionCancel:
			if callerManagerID != offer.FromManagerID {
				return nil, fmt.Errorf("%w: only the sender may cancel", ErrUnauthorized)
			}
			offer.Status = trade.StatusCanceled
		default:
			return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
		}

		respondedAt := s.now()
		offer.RespondedAt = &respondedAt
		result = offer
		return &engine.ChangeSet{Trades: []trade.Offer{offer}}, nil
	})
	if err != nil {
		return trade.Offer{}, err
	}

	return result, nil
}

// Apply settles an accepted offer: it re-resolves both sides' current
// ownership and swaps the listed slots pairwise, marking the offer
// completed with an apply timestamp in the same commit. If ownership moved
// since acceptance the offer degrades to rejected instead of half-applying.
// A second apply of a completed offer is a no-op.
func (s *TradeService) Apply(ctx context.Context, roomID, tradeID, callerManagerID string, privileged bool) (trade.Offer, error) {
	ctx, span := startUsecaseSpan(ctx, "TradeService.Apply")
	defer span.End()

	roomID = strings.TrimSpace(roomID)
	tradeID = strings.TrimSpace(tradeID)
	callerManagerID = strings.TrimSpace(callerManagerID)
	if roomID == "" || tradeID == "" {
		return trade.Offer{}, fmt.Errorf("%w: room_id and trade_id are required", ErrInvalidInput)
	}

	var result trade.Offer
	err := runRoomTxn(ctx, s.store, roomID, func(state engine.State) (*engine.ChangeSet, error) {
		if !privileged && !state.Room.IsHost(callerManagerID) {
			return nil, fmt.Errorf("%w: only the host may apply trades", ErrUnauthorized)
		}

		offer, ok := state.Trades[tradeID]
		if !ok {
			return nil, fmt.Errorf("%w: trade %s", ErrNotFound, tradeID)
		}
		if offer.Status == trade.StatusCompleted && offer.AppliedAt != nil {
			result = offer
			return nil, nil
		}
		if offer.Status != trade.StatusAccepted {
			return nil, fmt.Errorf("%w: trade is %s, only accepted offers apply", ErrInvalidInput, offer.Status)
		}

		now := s.now()
		if checkOwnership(state.Slots, offer.FromManagerID, offer.Give) != nil ||
			checkOwnership(state.Slots, offer.ToManagerID, offer.Receive) != nil {
			// Ownership moved since acceptance. Degrade, never half-apply.
			offer.Status = trade.StatusRejected
			offer.RespondedAt = &now
			result = offer
			return &engine.ChangeSet{Trades: []trade.Offer{offer}}, nil
		}

		cs := &engine.ChangeSet{}
		for i := range offer.Give {
			giveSlot := state.Slots[offer.Give[i]]
			receiveSlot := state.Slots[offer.Receive[i]]

			giveSlot.PlayerID, receiveSlot.PlayerID = receiveSlot.PlayerID, giveSlot.PlayerID
			giveSlot.Position, receiveSlot.Position = receiveSlot.Position, giveSlot.Position

			cs.DeleteSlotIDs = append(cs.DeleteSlotIDs, offer.Give[i], offer.Receive[i])
			cs.Slots = append(cs.Slots, giveSlot, receiveSlot)
		}

		offer.Status = trade.StatusCompleted
		offer.AppliedAt = &now
		cs.Trades = []trade.Offer{offer}
		result = offer
		return cs, nil
	})
	if err != nil {
		return trade.Offer{}, err
	}

	return result, nil
}

func checkOwnership(slots map[string]roster.Slot, managerID string, playerIDs []string) error {
	for _, playerID := range playerIDs {
		slot, ok := slots[playerID]
		if !ok || slot.OwnerManagerID != managerID {
			return fmt.Errorf("%w: manager %s does not own player %s", ErrInvalidInput, managerID, playerID)
		}
	}
	return nil
}

func normalizePlayerIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
