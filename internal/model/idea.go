package model

import (
	"time"

	"github.com/google/uuid"
)

// Idea is the stored form of a planner item. Status and Position are
// only ever written together, by a create or by a full-board reorder.
type Idea struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Title        string    `gorm:"not null"`
	DisplayTitle *string
	Notes        *string
	Status       string `gorm:"not null;index"`
	Position     int    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
