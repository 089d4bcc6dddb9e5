package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"swapslot/backend/internal/dto"
	"swapslot/backend/internal/model"
	"swapslot/backend/internal/repository"
	pkgerrors "swapslot/backend/pkg/errors"
)

// ── Swap negotiation errors ──

var (
	ErrSameSlot            = pkgerrors.InvalidArgument("a slot cannot be swapped with itself")
	ErrSwapWithSelf        = pkgerrors.InvalidArgument("cannot request a swap for a slot you already own")
	ErrSlotsNotSwappable   = pkgerrors.Conflict("both slots must be SWAPPABLE")
	ErrSwapRequestNotFound = pkgerrors.NotFound("swap request not found")
	ErrRequestResolved     = pkgerrors.Conflict("request already resolved")
	ErrSlotGone            = pkgerrors.Conflict("slot no longer exists")
	ErrSlotsUnavailable    = pkgerrors.Conflict("slots no longer available for swap")
	ErrInvalidSwapAction   = pkgerrors.Validation("the given data was invalid", map[string]string{
		"action": "action must be ACCEPT or REJECT",
	})
)

// SwapService swap negotiation engine.
//
// Slot state machine:
//
//	SWAPPABLE ──create──▶ SWAP_PENDING ──accept──▶ BUSY (owners exchanged)
//	                           │
//	                           └──reject──▶ SWAPPABLE
//
// Every operation runs in one transaction. Slots are read with row locks in
// ascending id order and written with version checks, so of two concurrent
// negotiations over one slot exactly one commits.
type SwapService interface {
	CreateSwapRequest(ctx context.Context, callerID, mySlotID, theirSlotID string) (*dto.SwapRequestResponse, error)
	RespondToSwap(ctx context.Context, callerID, requestID string, action dto.SwapAction) (*dto.SwapRequestResponse, error)
	Incoming(ctx context.Context, callerID string) ([]dto.SwapRequestDetail, error)
	Outgoing(ctx context.Context, callerID string) ([]dto.SwapRequestDetail, error)
}

type swapService struct {
	repo   *repository.Repository
	policy AccessPolicy
	logger *zap.Logger
	now    func() time.Time
}

// NewSwapService creates a SwapService
func NewSwapService(repo *repository.Repository, policy AccessPolicy, logger *zap.Logger) SwapService {
	return &swapService{
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ═══════════════════════════════════════════════════════════
// CreateSwapRequest
// ═══════════════════════════════════════════════════════════

func (s *swapService) CreateSwapRequest(ctx context.Context, callerID, mySlotID, theirSlotID string) (*dto.SwapRequestResponse, error) {
	if mySlotID == theirSlotID {
		return nil, ErrSameSlot
	}

	var created *model.SwapRequest
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		mySlot, theirSlot, err := lockSlotPair(ctx, tx, mySlotID, theirSlotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}

		if mySlot.Status != model.SlotSwappable || theirSlot.Status != model.SlotSwappable {
			return ErrSlotsNotSwappable
		}
		if err := s.policy.AssertOwns(callerID, mySlot); err != nil {
			return err
		}
		// requester and receiver must be different users
		if theirSlot.OwnerID == callerID {
			return ErrSwapWithSelf
		}

		req := &model.SwapRequest{
			RequesterID: callerID,
			ReceiverID:  theirSlot.OwnerID,
			MySlotID:    mySlot.SlotID,
			TheirSlotID: theirSlot.SlotID,
			Status:      model.SwapPending,
		}
		if err := tx.SwapRequest.Create(ctx, req); err != nil {
			return err
		}

		for _, slot := range []*model.Slot{mySlot, theirSlot} {
			slot.Status = model.SlotSwapPending
			if err := tx.Slot.Update(ctx, slot); err != nil {
				return err
			}
		}
		created = req
		return nil
	})
	if err != nil {
		logUnexpected(s.logger, "create swap request failed", err,
			zap.String("my_slot_id", mySlotID),
			zap.String("their_slot_id", theirSlotID),
		)
		return nil, err
	}

	s.logger.Info("swap requested",
		zap.String("swap_request_id", created.SwapRequestID),
		zap.String("requester_id", created.RequesterID),
		zap.String("receiver_id", created.ReceiverID),
	)
	return toSwapRequestResponse(created), nil
}

// ═══════════════════════════════════════════════════════════
// RespondToSwap
// ═══════════════════════════════════════════════════════════

func (s *swapService) RespondToSwap(ctx context.Context, callerID, requestID string, action dto.SwapAction) (*dto.SwapRequestResponse, error) {
	if action != dto.SwapActionAccept && action != dto.SwapActionReject {
		return nil, ErrInvalidSwapAction
	}

	var resolved *model.SwapRequest
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		req, err := tx.SwapRequest.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSwapRequestNotFound
			}
			return err
		}
		if req.Status != model.SwapPending {
			// only the recorded receiver learns that a request is settled
			if req.ReceiverID != callerID {
				return ErrNotSwapReceiver
			}
			return ErrRequestResolved
		}

		mySlot, theirSlot, err := lockSlotPair(ctx, tx, req.MySlotID, req.TheirSlotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotGone
			}
			return err
		}

		if err := s.policy.AssertIsReceiver(callerID, req, theirSlot); err != nil {
			return err
		}

		now := s.now()
		switch action {
		case dto.SwapActionReject:
			if err := tx.SwapRequest.Resolve(ctx, req, model.SwapRejected, now); err != nil {
				return err
			}
			mySlot.Status = model.SlotSwappable
			theirSlot.Status = model.SlotSwappable

		case dto.SwapActionAccept:
			if mySlot.Status != model.SlotSwapPending || theirSlot.Status != model.SlotSwapPending {
				return ErrSlotsUnavailable
			}
			if err := tx.SwapRequest.Resolve(ctx, req, model.SwapAccepted, now); err != nil {
				return err
			}
			mySlot.OwnerID, theirSlot.OwnerID = theirSlot.OwnerID, mySlot.OwnerID
			mySlot.Status = model.SlotBusy
			theirSlot.Status = model.SlotBusy
		}

		if err := tx.Slot.Update(ctx, mySlot); err != nil {
			return err
		}
		if err := tx.Slot.Update(ctx, theirSlot); err != nil {
			return err
		}
		resolved = req
		return nil
	})
	if err != nil {
		logUnexpected(s.logger, "respond to swap request failed", err,
			zap.String("swap_request_id", requestID),
			zap.String("action", string(action)),
		)
		return nil, err
	}

	s.logger.Info("swap resolved",
		zap.String("swap_request_id", resolved.SwapRequestID),
		zap.String("status", string(resolved.Status)),
	)
	return toSwapRequestResponse(resolved), nil
}

// lockSlotPair reads both slots FOR UPDATE, lower id first, and returns them
// in argument order. A missing slot yields gorm.ErrRecordNotFound.
func lockSlotPair(ctx context.Context, tx *repository.Repository, firstID, secondID string) (*model.Slot, *model.Slot, error) {
	swapped := secondID < firstID
	if swapped {
		firstID, secondID = secondID, firstID
	}
	a, err := tx.Slot.GetByIDForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	b, err := tx.Slot.GetByIDForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}
	if swapped {
		return b, a, nil
	}
	return a, b, nil
}

// ═══════════════════════════════════════════════════════════
// Listings
// ═══════════════════════════════════════════════════════════

func (s *swapService) Incoming(ctx context.Context, callerID string) ([]dto.SwapRequestDetail, error) {
	rows, err := s.repo.SwapRequest.ListIncoming(ctx, callerID)
	if err != nil {
		s.logger.Error("list incoming swap requests failed", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	return toSwapRequestDetails(rows), nil
}

func (s *swapService) Outgoing(ctx context.Context, callerID string) ([]dto.SwapRequestDetail, error) {
	rows, err := s.repo.SwapRequest.ListOutgoing(ctx, callerID)
	if err != nil {
		s.logger.Error("list outgoing swap requests failed", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	return toSwapRequestDetails(rows), nil
}

// ── conversion ──

func toSwapRequestResponse(req *model.SwapRequest) *dto.SwapRequestResponse {
	return &dto.SwapRequestResponse{
		ID:          req.SwapRequestID,
		RequesterID: req.RequesterID,
		ReceiverID:  req.ReceiverID,
		MySlotID:    req.MySlotID,
		TheirSlotID: req.TheirSlotID,
		Status:      string(req.Status),
		CreatedAt:   formatTime(req.CreatedAt),
		UpdatedAt:   formatTime(req.UpdatedAt),
		RespondedAt: formatTimePtr(req.RespondedAt),
	}
}

func toSwapRequestDetails(rows []repository.SwapRequestRow) []dto.SwapRequestDetail {
	result := make([]dto.SwapRequestDetail, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		detail := dto.SwapRequestDetail{
			SwapRequestResponse: dto.SwapRequestResponse{
				ID:          row.SwapRequestID,
				RequesterID: row.RequesterID,
				ReceiverID:  row.ReceiverID,
				MySlotID:    row.MySlotID,
				TheirSlotID: row.TheirSlotID,
				Status:      row.Status,
				CreatedAt:   formatTime(row.CreatedAt),
				UpdatedAt:   formatTime(row.UpdatedAt),
				RespondedAt: formatTimePtr(row.RespondedAt),
			},
			MySlot:    slotBrief(row.MySlotID, row.MySlotOwnerID, row.MySlotTitle, row.MySlotStart, row.MySlotEnd, row.MySlotStatus),
			TheirSlot: slotBrief(row.TheirSlotID, row.TheirSlotOwnerID, row.TheirSlotTitle, row.TheirSlotStart, row.TheirSlotEnd, row.TheirSlotStatus),
		}
		if row.CounterpartID != nil {
			detail.Counterpart = &dto.UserBrief{
				ID:    *row.CounterpartID,
				Name:  deref(row.CounterpartName),
				Email: deref(row.CounterpartEmail),
			}
		}
		result = append(result, detail)
	}
	return result
}

func slotBrief(id string, ownerID, title *string, start, end *time.Time, status *string) *dto.SlotBrief {
	if ownerID == nil {
		return nil
	}
	brief := &dto.SlotBrief{
		ID:      id,
		OwnerID: *ownerID,
		Title:   deref(title),
		Status:  deref(status),
	}
	if start != nil {
		brief.StartTime = formatTime(*start)
	}
	if end != nil {
		brief.EndTime = formatTime(*end)
	}
	return brief
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
