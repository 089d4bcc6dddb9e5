package dto

// ── Swap negotiation DTO ──

// SwapAction receiver's decision
type SwapAction string

const (
	SwapActionAccept SwapAction = "ACCEPT"
	SwapActionReject SwapAction = "REJECT"
)

// CreateSwapRequest POST /swap-request
type CreateSwapRequest struct {
	MySlotID    string `json:"my_slot_id"    binding:"required,uuid"`
	TheirSlotID string `json:"their_slot_id" binding:"required,uuid"`
}

// RespondSwapRequest POST /swap-response
type RespondSwapRequest struct {
	RequestID string     `json:"request_id" binding:"required,uuid"`
	Action    SwapAction `json:"action"     binding:"required,oneof=ACCEPT REJECT"`
}

// SwapRequestResponse swap request record
type SwapRequestResponse struct {
	ID          string  `json:"id"`
	RequesterID string  `json:"requester_id"`
	ReceiverID  string  `json:"receiver_id"`
	MySlotID    string  `json:"my_slot_id"`
	TheirSlotID string  `json:"their_slot_id"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	RespondedAt *string `json:"responded_at,omitempty"`
}

// UserBrief counterpart of a negotiation
type UserBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SwapRequestDetail listing row: request joined with both slots and the counterpart
type SwapRequestDetail struct {
	SwapRequestResponse
	MySlot      *SlotBrief `json:"my_slot"`
	TheirSlot   *SlotBrief `json:"their_slot"`
	Counterpart *UserBrief `json:"counterpart"`
}
