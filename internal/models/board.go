package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Board struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description *string        `json:"description"`
	JoinCode    string         `json:"joinCode" gorm:"uniqueIndex;not null"`
	WebhookURL  *string        `json:"webhookUrl"`
	StartsAt    *time.Time     `json:"startsAt"`
	EndsAt      *time.Time     `json:"endsAt"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Tiles       []Tile         `json:"tiles,omitempty" gorm:"foreignKey:BoardID"`
	Teams       []Team         `json:"teams,omitempty" gorm:"foreignKey:BoardID"`
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Board DTOs
type CreateBoardRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	WebhookURL  *string    `json:"webhookUrl"`
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
}

type UpdateBoardRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	WebhookURL  *string    `json:"webhookUrl"`
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
}
