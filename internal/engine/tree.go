package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The goal/group rows of a tile form a forest via nullable parent pointers.
// Every mutation here must leave that forest acyclic. Concurrent edits by two
// organizers are not serialized: the cycle check runs against the tree as
// read at the start of the move, so two moves that individually pass the
// check can in theory jointly introduce a cycle. Last writer wins.

// CreateGroup appends a new group under parentGroupID (nil for root level) at
// the end of the existing siblings.
func CreateGroup(db *gorm.DB, tileID uuid.UUID, req models.CreateGroupRequest) (*models.GoalGroup, error) {
	operator := strings.ToUpper(strings.TrimSpace(req.LogicalOperator))
	if operator == "" {
		operator = models.OperatorAND
	}
	if operator != models.OperatorAND && operator != models.OperatorOR {
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidState, req.LogicalOperator)
	}

	if req.ParentGroupID != nil {
		if err := groupOnTile(db, tileID, *req.ParentGroupID); err != nil {
			return nil, err
		}
	}

	minRequired := 1
	if req.MinRequiredGoals != nil && *req.MinRequiredGoals > 1 {
		minRequired = *req.MinRequiredGoals
	}

	siblings, err := countSiblings(db, tileID, req.ParentGroupID)
	if err != nil {
		return nil, err
	}

	group := models.GoalGroup{
		TileID:           tileID,
		ParentGroupID:    req.ParentGroupID,
		LogicalOperator:  operator,
		MinRequiredGoals: minRequired,
		Name:             normalizeName(req.Name),
		OrderIndex:       siblings,
	}
	if err := db.Create(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGoal appends a leaf goal under its parent (nil for root level),
// creating the attached item record for item-type goals.
func CreateGoal(db *gorm.DB, tileID uuid.UUID, goal models.Goal, item *models.ItemGoalPayload) (*models.Goal, error) {
	if goal.ParentGroupID != nil {
		if err := groupOnTile(db, tileID, *goal.ParentGroupID); err != nil {
			return nil, err
		}
	}

	siblings, err := countSiblings(db, tileID, goal.ParentGroupID)
	if err != nil {
		return nil, err
	}
	goal.TileID = tileID
	goal.OrderIndex = siblings

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&goal).Error; err != nil {
			return err
		}
		if goal.GoalType == models.GoalTypeItem && item != nil {
			itemGoal := models.ItemGoal{
				GoalID:       goal.ID,
				ItemID:       item.ItemID,
				BaseName:     item.BaseName,
				ExactVariant: item.ExactVariant,
				ImageURL:     item.ImageURL,
			}
			if err := tx.Create(&itemGoal).Error; err != nil {
				return err
			}
			goal.ItemGoal = &itemGoal
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes a leaf goal and its item record. Team progress rows are
// left in place; they are owned by the teams that earned them.
func DeleteGoal(db *gorm.DB, tileID, goalID uuid.UUID) error {
	var goal models.Goal
	if err := db.First(&goal, "id = ? AND tile_id = ?", goalID, tileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: goal %s", ErrNotFound, goalID)
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", goal.ID).Delete(&models.ItemGoal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&goal).Error
	})
}

// UpdateGroup applies a partial update. A blank or whitespace-only name
// clears the label.
func UpdateGroup(db *gorm.DB, groupID uuid.UUID, req models.UpdateGroupRequest) (*models.GoalGroup, error) {
	var group models.GoalGroup
	if err := db.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return nil, err
	}

	if req.LogicalOperator != nil {
		operator := strings.ToUpper(strings.TrimSpace(*req.LogicalOperator))
		if operator != models.OperatorAND && operator != models.OperatorOR {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidState, *req.LogicalOperator)
		}
		group.LogicalOperator = operator
	}
	if req.MinRequiredGoals != nil {
		group.MinRequiredGoals = *req.MinRequiredGoals
		if group.MinRequiredGoals < 1 {
			group.MinRequiredGoals = 1
		}
	}
	if req.Name != nil {
		group.Name = normalizeName(req.Name)
	}

	if err := db.Save(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes a group and promotes all of its direct children (both
// sub-groups and goals) to the deleted group's own parent. Re-parenting and
// the delete commit together or not at all.
func DeleteGroup(db *gorm.DB, groupID uuid.UUID) error {
	var group models.GoalGroup
	if err := db.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GoalGroup{}).
			Where("parent_group_id = ?", group.ID).
			Update("parent_group_id", group.ParentGroupID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Goal{}).
			Where("parent_group_id = ?", group.ID).
			Update("parent_group_id", group.ParentGroupID).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
}

// MoveGoalToGroup re-parents a goal. Goals are leaves, so no cycle check is
// needed; the target is still validated for existence and tile scope.
func MoveGoalToGroup(db *gorm.DB, goalID uuid.UUID, req models.MoveItemRequest) error {
	var goal models.Goal
	if err := db.First(&goal, "id = ?", goalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: goal %s", ErrNotFound, goalID)
		}
		return err
	}

	if req.TargetParentID != nil {
		if err := groupOnTile(db, goal.TileID, *req.TargetParentID); err != nil {
			return err
		}
	}

	orderIndex, err := resolveOrderIndex(db, goal.TileID, req.TargetParentID, req.OrderIndex)
	if err != nil {
		return err
	}

	return db.Model(&goal).Updates(map[string]interface{}{
		"parent_group_id": req.TargetParentID,
		"order_index":     orderIndex,
	}).Error
}

// MoveGroupToGroup re-parents a group after verifying the move would not make
// the group its own ancestor. On a detected cycle nothing is written.
func MoveGroupToGroup(db *gorm.DB, groupID uuid.UUID, req models.MoveItemRequest) error {
	var group models.GoalGroup
	if err := db.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: group %s", ErrNotFound, groupID)
		}
		return err
	}

	if req.TargetParentID != nil {
		if err := groupOnTile(db, group.TileID, *req.TargetParentID); err != nil {
			return err
		}
		cycle, err := wouldCreateCycle(db, group.TileID, group.ID, req.TargetParentID)
		if err != nil {
			return err
		}
		if cycle {
			return fmt.Errorf("%w: group %s cannot become a descendant of itself", ErrCircularReference, groupID)
		}
	}

	orderIndex, err := resolveOrderIndex(db, group.TileID, req.TargetParentID, req.OrderIndex)
	if err != nil {
		return err
	}

	return db.Model(&group).Updates(map[string]interface{}{
		"parent_group_id": req.TargetParentID,
		"order_index":     orderIndex,
	}).Error
}

// ReorderItems batch-assigns sibling order indices. The whole batch commits
// atomically; any entry that does not resolve to a goal or group on the tile
// fails everything.
func ReorderItems(db *gorm.DB, tileID uuid.UUID, items []models.ReorderEntry) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var result *gorm.DB
			switch item.Type {
			case "goal":
				result = tx.Model(&models.Goal{}).
					Where("id = ? AND tile_id = ?", item.ID, tileID).
					Update("order_index", item.OrderIndex)
			case "group":
				result = tx.Model(&models.GoalGroup{}).
					Where("id = ? AND tile_id = ?", item.ID, tileID).
					Update("order_index", item.OrderIndex)
			default:
				return fmt.Errorf("%w: unknown item type %q", ErrInvalidState, item.Type)
			}
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: %s %s not found on tile", ErrInvalidState, item.Type, item.ID)
			}
		}
		return nil
	})
}

// BatchMoveResult reports the outcome of a best-effort bulk move.
type BatchMoveResult struct {
	MovedCount  int      `json:"movedCount"`
	FailedCount int      `json:"failedCount"`
	Errors      []string `json:"errors,omitempty"`
}

// MoveMultipleItems moves a set of goals and groups under a new parent. Unlike
// the single-item moves this is deliberately not atomic: each item succeeds or
// fails on its own (groups still get the cycle check) and the result carries
// per-item errors so bulk UI operations can report partial success.
func MoveMultipleItems(db *gorm.DB, tileID uuid.UUID, req models.BatchMoveRequest) (*BatchMoveResult, error) {
	if req.TargetParentID != nil {
		if err := groupOnTile(db, tileID, *req.TargetParentID); err != nil {
			return nil, err
		}
	}

	result := &BatchMoveResult{}
	for _, item := range req.Items {
		var err error
		switch item.Type {
		case "goal":
			err = MoveGoalToGroup(db, item.ID, models.MoveItemRequest{TargetParentID: req.TargetParentID})
		case "group":
			err = MoveGroupToGroup(db, item.ID, models.MoveItemRequest{TargetParentID: req.TargetParentID})
		default:
			err = fmt.Errorf("%w: unknown item type %q", ErrInvalidState, item.Type)
		}
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", item.Type, item.ID, err))
			continue
		}
		result.MovedCount++
	}
	return result, nil
}

// wouldCreateCycle walks upward from targetParentID through parent links. If
// the walk reaches movingGroupID the move would make the group its own
// ancestor. The walk terminates at a root (nil parent) otherwise; depth is
// bounded because the forest is acyclic before the move.
func wouldCreateCycle(db *gorm.DB, tileID, movingGroupID uuid.UUID, targetParentID *uuid.UUID) (bool, error) {
	cursor := targetParentID
	for cursor != nil {
		if *cursor == movingGroupID {
			return true, nil
		}
		var parent models.GoalGroup
		err := db.Select("parent_group_id").
			Where("id = ? AND tile_id = ?", *cursor, tileID).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, fmt.Errorf("%w: group %s", ErrNotFound, *cursor)
			}
			return false, err
		}
		cursor = parent.ParentGroupID
	}
	return false, nil
}

// groupOnTile verifies that a referenced parent group exists and belongs to
// the same tile, guarding against cross-tile corruption.
func groupOnTile(db *gorm.DB, tileID, groupID uuid.UUID) error {
	var count int64
	if err := db.Model(&models.GoalGroup{}).
		Where("id = ? AND tile_id = ?", groupID, tileID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: group %s on tile %s", ErrNotFound, groupID, tileID)
	}
	return nil
}

// countSiblings counts the goals and groups already under a parent so new and
// moved nodes append at the end.
func countSiblings(db *gorm.DB, tileID uuid.UUID, parentGroupID *uuid.UUID) (int, error) {
	var groups, goals int64
	groupQuery := db.Model(&models.GoalGroup{}).Where("tile_id = ?", tileID)
	goalQuery := db.Model(&models.Goal{}).Where("tile_id = ?", tileID)
	if parentGroupID == nil {
		groupQuery = groupQuery.Where("parent_group_id IS NULL")
		goalQuery = goalQuery.Where("parent_group_id IS NULL")
	} else {
		groupQuery = groupQuery.Where("parent_group_id = ?", *parentGroupID)
		goalQuery = goalQuery.Where("parent_group_id = ?", *parentGroupID)
	}
	if err := groupQuery.Count(&groups).Error; err != nil {
		return 0, err
	}
	if err := goalQuery.Count(&goals).Error; err != nil {
		return 0, err
	}
	return int(groups + goals), nil
}

func resolveOrderIndex(db *gorm.DB, tileID uuid.UUID, parentGroupID *uuid.UUID, requested *int) (int, error) {
	if requested != nil {
		return *requested, nil
	}
	return countSiblings(db, tileID, parentGroupID)
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
