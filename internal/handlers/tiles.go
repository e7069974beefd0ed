package handlers

import (
	"github.com/clanbingo/bingo-api/internal/database"
	"github.com/clanbingo/bingo-api/internal/middleware"
	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// findTileForOrganizer resolves a tile route param and verifies the current
// user organizes its board.
func findTileForOrganizer(c *fiber.Ctx) (*models.Tile, *models.Board, error) {
	tileID, err := uuid.Parse(c.Params("tileId"))
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid tile ID")
	}

	var tile models.Tile
	if err := database.DB.First(&tile, "id = ?", tileID).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Tile not found")
	}

	board, fiberErr := requireOrganizer(c, tile.BoardID)
	if fiberErr != nil {
		return nil, nil, fiberErr
	}
	return &tile, board, nil
}

// findTileForParticipant resolves a tile and verifies the user can at least
// view its board (organizer or team member).
func findTileForParticipant(c *fiber.Ctx) (*models.Tile, error) {
	userID := middleware.GetUserID(c)
	tileID, err := uuid.Parse(c.Params("tileId"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid tile ID")
	}

	var tile models.Tile
	if err := database.DB.First(&tile, "id = ?", tileID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Tile not found")
	}

	var board models.Board
	if err := database.DB.First(&board, "id = ?", tile.BoardID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Board not found")
	}
	if board.UserID != userID && !isBoardParticipant(board.ID, userID) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Tile not found")
	}
	return &tile, nil
}

func CreateTile(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	board, fiberErr := requireOrganizer(c, boardID)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.CreateTileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	tile := models.Tile{
		BoardID:     board.ID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Position:    req.Position,
		Weight:      1,
	}
	if req.Weight != nil && *req.Weight > 0 {
		tile.Weight = *req.Weight
	}

	if err := database.DB.Create(&tile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create tile",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(tile)
}

func UpdateTile(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.UpdateTileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil {
		tile.Title = *req.Title
	}
	if req.Description != nil {
		tile.Description = req.Description
	}
	if req.ImageURL != nil {
		tile.ImageURL = req.ImageURL
	}
	if req.Position != nil {
		tile.Position = *req.Position
	}
	if req.Weight != nil && *req.Weight > 0 {
		tile.Weight = *req.Weight
	}

	if err := database.DB.Save(tile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update tile",
		})
	}

	return c.JSON(tile)
}

func DeleteTile(c *fiber.Ctx) error {
	tile, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	if err := database.DB.Delete(tile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete tile",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
