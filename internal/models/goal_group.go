package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Logical operators for goal groups
const (
	OperatorAND = "AND"
	OperatorOR  = "OR"
)

// GoalGroup is an internal node of a tile's requirement tree. Groups with a
// nil ParentGroupID sit at the root level of the tile. The set of groups for
// a tile must always form a forest: no group may be its own ancestor.
type GoalGroup struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TileID           uuid.UUID  `json:"tileId" gorm:"type:uuid;index;not null"`
	ParentGroupID    *uuid.UUID `json:"parentGroupId" gorm:"type:uuid;index"`
	LogicalOperator  string     `json:"logicalOperator" gorm:"not null;default:'AND'"` // AND, OR
	MinRequiredGoals int        `json:"minRequiredGoals" gorm:"not null;default:1"`
	Name             *string    `json:"name"`
	OrderIndex       int        `json:"orderIndex" gorm:"not null;default:0"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (g *GoalGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GoalGroup DTOs
type CreateGroupRequest struct {
	LogicalOperator  string     `json:"logicalOperator" validate:"required"`
	ParentGroupID    *uuid.UUID `json:"parentGroupId"`
	MinRequiredGoals *int       `json:"minRequiredGoals"`
	Name             *string    `json:"name"`
}

type UpdateGroupRequest struct {
	LogicalOperator  *string `json:"logicalOperator"`
	MinRequiredGoals *int    `json:"minRequiredGoals"`
	Name             *string `json:"name"`
}

type MoveItemRequest struct {
	TargetParentID *uuid.UUID `json:"targetParentId"`
	OrderIndex     *int       `json:"orderIndex"`
}

// ReorderEntry addresses one goal or group in a sibling reorder batch.
type ReorderEntry struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"` // goal, group
	OrderIndex int       `json:"orderIndex"`
}

type ReorderRequest struct {
	Items []ReorderEntry `json:"items" validate:"required"`
}

// BatchMoveEntry addresses one goal or group in a bulk move.
type BatchMoveEntry struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"` // goal, group
}

type BatchMoveRequest struct {
	Items          []BatchMoveEntry `json:"items" validate:"required"`
	TargetParentID *uuid.UUID       `json:"targetParentId"`
}
