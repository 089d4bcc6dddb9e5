package dto

import "time"

// ── Slot DTO ──

// CreateSlotRequest POST /events
type CreateSlotRequest struct {
	Title     string    `json:"title"      binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time"   binding:"required"`
	Status    string    `json:"status"     binding:"omitempty,oneof=BUSY SWAPPABLE"`
}

// UpdateSlotStatusRequest PATCH /events/:id
type UpdateSlotStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=BUSY SWAPPABLE"`
}

// SlotResponse slot view
type SlotResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// SlotBrief slot as embedded in swap request listings; nil when the slot was removed
type SlotBrief struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// ImportSkipped one calendar event that did not become a slot
type ImportSkipped struct {
	UID    string            `json:"uid"`
	Reason string            `json:"reason"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ImportSlotsResponse POST /events/import
type ImportSlotsResponse struct {
	Events  []SlotResponse  `json:"events"`
	Skipped []ImportSkipped `json:"skipped"`
}
