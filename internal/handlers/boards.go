package handlers

import (
	"strings"

	"github.com/clanbingo/bingo-api/internal/database"
	"github.com/clanbingo/bingo-api/internal/middleware"
	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// isBoardParticipant reports whether the user belongs to any team on the board.
func isBoardParticipant(boardID, userID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.TeamMember{}).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("teams.board_id = ? AND team_members.user_id = ?", boardID, userID).
		Count(&count)
	return count > 0
}

// requireOrganizer loads a board and verifies the user owns it. The returned
// error is a *fiber.Error rendered by the app's error handler.
func requireOrganizer(c *fiber.Ctx, boardID uuid.UUID) (*models.Board, error) {
	userID := middleware.GetUserID(c)

	var board models.Board
	if err := database.DB.Where("id = ? AND user_id = ?", boardID, userID).First(&board).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Board not found or you are not the organizer")
	}
	return &board, nil
}

func GetBoards(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var owned []models.Board
	database.DB.Where("user_id = ?", userID).Find(&owned)

	var joined []models.Board
	database.DB.
		Joins("JOIN teams ON teams.board_id = boards.id").
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND boards.user_id != ?", userID, userID).
		Distinct("boards.*").
		Find(&joined)

	return c.JSON(fiber.Map{
		"owned":  owned,
		"joined": joined,
	})
}

func CreateBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateBoardRequest
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

	board := models.Board{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		WebhookURL:  req.WebhookURL,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		JoinCode:    strings.ToUpper(uuid.New().String()[:8]),
	}

	if err := database.DB.Create(&board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create board",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(board)
}

func GetBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var board models.Board
	if err := database.DB.
		Preload("Tiles", func(db *gorm.DB) *gorm.DB { return db.Order("tiles.position ASC") }).
		Preload("Teams").
		First(&board, "id = ?", boardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	// Check access: organizer or team member
	if board.UserID != userID && !isBoardParticipant(boardID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	return c.JSON(board)
}

func UpdateBoard(c *fiber.Ctx) error {
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

	var req models.UpdateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil {
		board.Title = *req.Title
	}
	if req.Description != nil {
		board.Description = req.Description
	}
	if req.WebhookURL != nil {
		board.WebhookURL = req.WebhookURL
	}
	if req.StartsAt != nil {
		board.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		board.EndsAt = req.EndsAt
	}

	if err := database.DB.Save(board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update board",
		})
	}

	WS.Broadcast(board.ID, middleware.GetUserID(c), WSEvent{
		Type:    EventBoardUpdated,
		BoardID: board.ID.String(),
		Data:    board,
	})

	return c.JSON(board)
}

func DeleteBoard(c *fiber.Ctx) error {
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

	if err := database.DB.Delete(board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete board",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
