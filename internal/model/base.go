package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel audit timestamps embedded by every table
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// VersionedModel optimistic-lock counter; writers update "WHERE version = ?"
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// assignID fills an empty primary key with a random UUID
func assignID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}
