package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tile struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	BoardID     uuid.UUID      `json:"boardId" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description *string        `json:"description"`
	ImageURL    *string        `json:"imageUrl"`
	Position    int            `json:"position" gorm:"not null"`
	Weight      int            `json:"weight" gorm:"not null;default:1"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Goals       []Goal         `json:"goals,omitempty" gorm:"foreignKey:TileID"`
	GoalGroups  []GoalGroup    `json:"goalGroups,omitempty" gorm:"foreignKey:TileID"`
}

func (t *Tile) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Tile DTOs
type CreateTileRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Position    int     `json:"position"`
	Weight      *int    `json:"weight"`
}

type UpdateTileRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Position    *int    `json:"position"`
	Weight      *int    `json:"weight"`
}
