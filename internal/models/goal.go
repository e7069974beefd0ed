package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal types
const (
	GoalTypeGeneric = "generic"
	GoalTypeItem    = "item"
)

// Goal is a leaf requirement of a tile's tree. A nil ParentGroupID places the
// goal at the tile's root level.
type Goal struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TileID        uuid.UUID  `json:"tileId" gorm:"type:uuid;index;not null"`
	ParentGroupID *uuid.UUID `json:"parentGroupId" gorm:"type:uuid;index"`
	Description   *string    `json:"description"`
	GoalType      string     `json:"goalType" gorm:"not null;default:'generic'"` // generic, item
	TargetValue   float64    `json:"targetValue" gorm:"not null;default:1"`
	OrderIndex    int        `json:"orderIndex" gorm:"not null;default:0"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	ItemGoal      *ItemGoal  `json:"itemGoal,omitempty" gorm:"foreignKey:GoalID"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ItemGoal scopes an item-type goal to a specific in-game item. Matching
// against scanned inventories is done by the plugin ingestion handler, not by
// the evaluator.
type ItemGoal struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID       uuid.UUID `json:"goalId" gorm:"type:uuid;uniqueIndex;not null"`
	ItemID       int       `json:"itemId" gorm:"not null"`
	BaseName     string    `json:"baseName" gorm:"not null"`
	ExactVariant *string   `json:"exactVariant"`
	ImageURL     *string   `json:"imageUrl"`
}

func (i *ItemGoal) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Goal DTOs
type ItemGoalPayload struct {
	ItemID       int     `json:"itemId" validate:"required"`
	BaseName     string  `json:"baseName" validate:"required"`
	ExactVariant *string `json:"exactVariant"`
	ImageURL     *string `json:"imageUrl"`
}

type CreateGoalRequest struct {
	ParentGroupID *uuid.UUID       `json:"parentGroupId"`
	Description   *string          `json:"description"`
	GoalType      string           `json:"goalType"`
	TargetValue   float64          `json:"targetValue"`
	Item          *ItemGoalPayload `json:"item"`
}

type UpdateGoalRequest struct {
	Description *string  `json:"description"`
	TargetValue *float64 `json:"targetValue"`
}
