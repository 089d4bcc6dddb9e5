package model

import (
	"time"

	"gorm.io/gorm"
)

// SlotStatus negotiation status of a slot
type SlotStatus string

const (
	SlotBusy        SlotStatus = "BUSY"
	SlotSwappable   SlotStatus = "SWAPPABLE"
	SlotSwapPending SlotStatus = "SWAP_PENDING"
)

// Valid reports membership in the enumerated set
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotBusy, SlotSwappable, SlotSwapPending:
		return true
	}
	return false
}

// OwnerSettable statuses an owner may set directly (SWAP_PENDING is engine-only)
func (s SlotStatus) OwnerSettable() bool {
	return s == SlotBusy || s == SlotSwappable
}

// Slot one owner's block of time (slots)
type Slot struct {
	SlotID    string     `gorm:"type:uuid;primaryKey"                      json:"slot_id"`
	OwnerID   string     `gorm:"type:uuid;not null;index"                  json:"owner_id"`
	Title     string     `gorm:"type:varchar(100);not null"                json:"title"`
	StartTime time.Time  `gorm:"not null;index"                            json:"start_time"`
	EndTime   time.Time  `gorm:"not null"                                  json:"end_time"`
	Status    SlotStatus `gorm:"type:varchar(20);not null;default:'BUSY'" json:"status"`
	VersionedModel
}

// TableName table name
func (Slot) TableName() string { return "slots" }

// BeforeCreate assigns the UUID primary key
func (s *Slot) BeforeCreate(_ *gorm.DB) error {
	assignID(&s.SlotID)
	return nil
}
