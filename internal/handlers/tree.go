package handlers

import (
	"errors"

	"github.com/clanbingo/bingo-api/internal/database"
	"github.com/clanbingo/bingo-api/internal/engine"
	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// treeError maps engine sentinels onto HTTP responses, surfacing the
// structural error message verbatim for the editing UI.
func treeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrCircularReference):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidState):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage error"})
	}
}

func CreateGoalGroup(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	group, err := engine.CreateGroup(database.DB, tile.ID, req)
	if err != nil {
		return treeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

func UpdateGoalGroup(c *fiber.Ctx) error {
	_, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	var req models.UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	group, err := engine.UpdateGroup(database.DB, groupID, req)
	if err != nil {
		return treeError(c, err)
	}
	return c.JSON(group)
}

func DeleteGoalGroup(c *fiber.Ctx) error {
	_, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	if err := engine.DeleteGroup(database.DB, groupID); err != nil {
		return treeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func CreateGoal(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	goalType := req.GoalType
	if goalType == "" {
		goalType = models.GoalTypeGeneric
	}
	if goalType != models.GoalTypeGeneric && goalType != models.GoalTypeItem {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal type",
		})
	}
	if goalType == models.GoalTypeItem && req.Item == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Item goals require an item payload",
		})
	}

	targetValue := req.TargetValue
	if targetValue <= 0 {
		targetValue = 1
	}

	goal, err := engine.CreateGoal(database.DB, tile.ID, models.Goal{
		ParentGroupID: req.ParentGroupID,
		Description:   req.Description,
		GoalType:      goalType,
		TargetValue:   targetValue,
	}, req.Item)
	if err != nil {
		return treeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func UpdateGoal(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.First(&goal, "id = ? AND tile_id = ?", goalID, tile.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	var req models.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Description != nil {
		goal.Description = req.Description
	}
	if req.TargetValue != nil && *req.TargetValue > 0 {
		goal.TargetValue = *req.TargetValue
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update goal",
		})
	}
	return c.JSON(goal)
}

func DeleteGoal(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	if err := engine.DeleteGoal(database.DB, tile.ID, goalID); err != nil {
		return treeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func MoveGoal(c *fiber.Ctx) error {
	_, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	goalID, err := uuid.Parse(c.Params("goalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var req models.MoveItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := engine.MoveGoalToGroup(database.DB, goalID, req); err != nil {
		return treeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func MoveGroup(c *fiber.Ctx) error {
	_, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	var req models.MoveItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := engine.MoveGroupToGroup(database.DB, groupID, req); err != nil {
		return treeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func ReorderTreeItems(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.ReorderRequest
	if err := c.BodyParser(&req); err != nil || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := engine.ReorderItems(database.DB, tile.ID, req.Items); err != nil {
		return treeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func BatchMoveTreeItems(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.BatchMoveRequest
	if err := c.BodyParser(&req); err != nil || len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := engine.MoveMultipleItems(database.DB, tile.ID, req)
	if err != nil {
		return treeError(c, err)
	}
	return c.JSON(result)
}

// GetTileTree returns the evaluated requirement tree for the caller's team
// (or a bare evaluation with zero progress for organizers without a team).
func GetTileTree(c *fiber.Ctx) error {
	tile, fiberErr := findTileForParticipant(c)
	if fiberErr != nil {
		return fiberErr
	}

	teamID := uuid.Nil
	if parsed, err := uuid.Parse(c.Query("teamId")); err == nil {
		teamID = parsed
	} else if team := findUserTeam(tile.BoardID, c); team != nil {
		teamID = team.ID
	}

	nodes, err := engine.GetDetailedEvaluation(database.DB, tile.ID, teamID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to evaluate tile",
		})
	}
	return c.JSON(fiber.Map{
		"tileId":    tile.ID,
		"teamId":    teamID,
		"rootNodes": nodes,
	})
}
