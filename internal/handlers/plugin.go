package handlers

import (
	"strings"

	"github.com/clanbingo/bingo-api/internal/database"
	"github.com/clanbingo/bingo-api/internal/engine"
	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// The RuneLite plugin authenticates as a team, not a user session, via the
// team's plugin token.

type scannedItem struct {
	ItemID   int    `json:"itemId"`
	Name     string `json:"name"`
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

type pluginSyncRequest struct {
	Items []scannedItem `json:"items"`
}

// itemGoalRow joins a goal with its item record and owning tile for matching.
type itemGoalRow struct {
	Goal models.Goal
	Item models.ItemGoal
}

func findTeamByPluginToken(c *fiber.Ctx) *models.Team {
	token := c.Get("X-Plugin-Token")
	if token == "" {
		token = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return nil
	}

	var team models.Team
	if err := database.DB.Where("plugin_token = ?", token).First(&team).Error; err != nil {
		return nil
	}
	return &team
}

// PluginSync ingests an item scan from the plugin. Progress writes are
// monotonic and capped at each goal's target, so re-scanning the same bank is
// idempotent. Affected (tile, team) pairs are deduplicated before the
// completion checks run.
func PluginSync(c *fiber.Ctx) error {
	team := findTeamByPluginToken(c)
	if team == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid plugin token",
		})
	}

	var req pluginSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var goals []models.Goal
	if err := database.DB.
		Joins("JOIN tiles ON tiles.id = goals.tile_id").
		Where("tiles.board_id = ? AND goals.goal_type = ?", team.BoardID, models.GoalTypeItem).
		Preload("ItemGoal").
		Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load item goals",
		})
	}

	updatedGoals := 0
	dirtyTiles := make(map[uuid.UUID]bool)
	for i := range goals {
		goal := &goals[i]
		if goal.ItemGoal == nil {
			continue
		}
		for _, scanned := range req.Items {
			if !itemMatches(goal.ItemGoal, scanned) {
				continue
			}
			newValue := float64(scanned.Quantity)
			if newValue > goal.TargetValue {
				newValue = goal.TargetValue
			}
			changed, err := engine.RecordProgress(database.DB, goal.ID, team.ID, newValue)
			if err != nil {
				continue // logged by the engine caller path; scan stays best-effort
			}
			if changed {
				updatedGoals++
				dirtyTiles[goal.TileID] = true
			}
		}
	}

	var board models.Board
	database.DB.First(&board, "id = ?", team.BoardID)

	var completedTiles []uuid.UUID
	for tileID := range dirtyTiles {
		WS.Broadcast(team.BoardID, uuid.Nil, WSEvent{
			Type:    EventProgressUpdated,
			BoardID: team.BoardID.String(),
			TeamID:  team.ID.String(),
			Data:    map[string]interface{}{"tileId": tileID.String()},
		})

		result := engine.CheckAndAutoComplete(database.DB, tileID, team.ID)
		if result.AutoCompleted {
			completedTiles = append(completedTiles, tileID)
			var tile models.Tile
			if err := database.DB.First(&tile, "id = ?", tileID).Error; err == nil {
				announceCompletion(&board, &tile, team)
			}
		}
	}

	return c.JSON(fiber.Map{
		"updatedGoals":   updatedGoals,
		"checkedTiles":   len(dirtyTiles),
		"completedTiles": completedTiles,
	})
}

// PluginBoard returns the team's board with an evaluated goal tree per tile,
// the plugin's JSON progress representation.
func PluginBoard(c *fiber.Ctx) error {
	team := findTeamByPluginToken(c)
	if team == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid plugin token",
		})
	}

	var board models.Board
	if err := database.DB.First(&board, "id = ?", team.BoardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	var tiles []models.Tile
	database.DB.Where("board_id = ?", board.ID).Order("position ASC").Find(&tiles)

	type tileProgress struct {
		Tile         models.Tile        `json:"tile"`
		RootNodes    []*engine.EvalNode `json:"rootNodes"`
		TileComplete bool               `json:"tileComplete"`
		Status       string             `json:"status"`
	}

	result := make([]tileProgress, 0, len(tiles))
	for _, tile := range tiles {
		eval, err := engine.Evaluate(database.DB, tile.ID, team.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to evaluate board",
			})
		}
		result = append(result, tileProgress{
			Tile:         tile,
			RootNodes:    eval.RootNodes,
			TileComplete: eval.TileComplete,
			Status:       currentStatus(tile.ID, team.ID),
		})
	}

	return c.JSON(fiber.Map{
		"board": board,
		"team":  team,
		"tiles": result,
	})
}

// itemMatches checks a scanned item against an item goal: exact-variant goals
// require the variant string to match, otherwise the item id or base name is
// enough.
func itemMatches(goal *models.ItemGoal, scanned scannedItem) bool {
	if goal.ExactVariant != nil {
		return strings.EqualFold(*goal.ExactVariant, scanned.Variant) &&
			(goal.ItemID == scanned.ItemID || strings.EqualFold(goal.BaseName, scanned.Name))
	}
	return goal.ItemID == scanned.ItemID || strings.EqualFold(goal.BaseName, scanned.Name)
}
