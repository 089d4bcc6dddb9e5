package model

import (
	"time"

	"gorm.io/gorm"
)

// SwapStatus lifecycle of a swap request; ACCEPTED and REJECTED are terminal
type SwapStatus string

const (
	SwapPending  SwapStatus = "PENDING"
	SwapAccepted SwapStatus = "ACCEPTED"
	SwapRejected SwapStatus = "REJECTED"
)

// Terminal reports whether the request can no longer change
func (s SwapStatus) Terminal() bool {
	return s == SwapAccepted || s == SwapRejected
}

// SwapRequest proposed exchange of two slots (swap_requests).
// RequesterID / ReceiverID are the slot owners captured at creation time.
type SwapRequest struct {
	SwapRequestID string     `gorm:"type:uuid;primaryKey"                         json:"swap_request_id"`
	RequesterID   string     `gorm:"type:uuid;not null;index"                     json:"requester_id"`
	ReceiverID    string     `gorm:"type:uuid;not null;index"                     json:"receiver_id"`
	MySlotID      string     `gorm:"type:uuid;not null"                           json:"my_slot_id"`
	TheirSlotID   string     `gorm:"type:uuid;not null"                           json:"their_slot_id"`
	Status        SwapStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	VersionedModel
}

// TableName table name
func (SwapRequest) TableName() string { return "swap_requests" }

// BeforeCreate assigns the UUID primary key
func (r *SwapRequest) BeforeCreate(_ *gorm.DB) error {
	assignID(&r.SwapRequestID)
	return nil
}
