package engine

import (
	"errors"
	"fmt"

	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordProgress upserts a team's progress toward a goal. The write is
// monotonic: the row is only touched when newValue is strictly greater than
// the stored value, which makes repeated scans of the same inventory
// idempotent. Returns whether anything changed.
func RecordProgress(db *gorm.DB, goalID, teamID uuid.UUID, newValue float64) (bool, error) {
	var row models.TeamGoalProgress
	err := db.Where("goal_id = ? AND team_id = ?", goalID, teamID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if newValue <= 0 {
			return false, nil
		}
		row = models.TeamGoalProgress{
			GoalID:       goalID,
			TeamID:       teamID,
			CurrentValue: newValue,
		}
		if err := db.Create(&row).Error; err != nil {
			return false, fmt.Errorf("create progress: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if newValue <= row.CurrentValue {
		return false, nil
	}
	row.CurrentValue = newValue
	if err := db.Save(&row).Error; err != nil {
		return false, fmt.Errorf("update progress: %w", err)
	}
	return true, nil
}
