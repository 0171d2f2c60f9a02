package model

import (
	"time"

	"github.com/google/uuid"
)

// User owns one planner board: every Idea with its UserID.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Email          string    `gorm:"type:text;uniqueIndex;not null"`
	HashedPassword string    `gorm:"type:text;not null"`
	Name           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`

	Ideas []Idea `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
