package service

import (
	"swapslot/backend/internal/model"
	pkgerrors "swapslot/backend/pkg/errors"
)

// ── Access policy errors ──

var (
	ErrNotSlotOwner    = pkgerrors.Forbidden("you do not own this slot")
	ErrNotSwapReceiver = pkgerrors.Forbidden("only the receiver may respond to this swap request")
	// ErrReceiverMismatch the caller owns the receiving slot but is not the
	// receiver recorded on the request. Unreachable while every ownership change
	// resolves its request.
	ErrReceiverMismatch = pkgerrors.Conflict("swap request receiver no longer matches the slot owner")
)

// AccessPolicy ownership checks gating who may act on a slot or request.
// The caller id is always passed explicitly.
type AccessPolicy interface {
	AssertOwns(callerID string, slot *model.Slot) error
	// AssertIsReceiver checks current ownership of theirSlot, re-read at
	// response time, then that it agrees with the recorded receiver.
	AssertIsReceiver(callerID string, req *model.SwapRequest, theirSlot *model.Slot) error
}

type accessPolicy struct{}

// NewAccessPolicy creates the AccessPolicy
func NewAccessPolicy() AccessPolicy {
	return accessPolicy{}
}

func (accessPolicy) AssertOwns(callerID string, slot *model.Slot) error {
	if slot == nil || callerID == "" || slot.OwnerID != callerID {
		return ErrNotSlotOwner
	}
	return nil
}

func (accessPolicy) AssertIsReceiver(callerID string, req *model.SwapRequest, theirSlot *model.Slot) error {
	if theirSlot == nil || callerID == "" || theirSlot.OwnerID != callerID {
		return ErrNotSwapReceiver
	}
	if req.ReceiverID != callerID {
		return ErrReceiverMismatch
	}
	return nil
}
