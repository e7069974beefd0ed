package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamGoalProgress tracks how far one team has progressed toward one goal.
// Rows are created on the first progress update for a (goal, team) pair and
// CurrentValue only ever moves upward through normal operation.
type TeamGoalProgress struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID       uuid.UUID `json:"goalId" gorm:"type:uuid;index:idx_goal_team,unique;not null"`
	TeamID       uuid.UUID `json:"teamId" gorm:"type:uuid;index:idx_goal_team,unique;not null"`
	CurrentValue float64   `json:"currentValue" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (p *TeamGoalProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
