package handlers

import (
	"errors"

	"github.com/clanbingo/bingo-api/internal/database"
	"github.com/clanbingo/bingo-api/internal/engine"
	"github.com/clanbingo/bingo-api/internal/middleware"
	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/clanbingo/bingo-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateSubmission is the evidence intake path. It only ever creates or
// re-pends the team's tile submission; advancing to approved is left to the
// auto-completion check, which runs afterwards as a best-effort step whose
// failure never fails the upload.
func CreateSubmission(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	tile, fiberErr := findTileForParticipant(c)
	if fiberErr != nil {
		return fiberErr
	}

	team := findUserTeam(tile.BoardID, c)
	if team == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not on a team for this board",
		})
	}

	imageURL, fiberErr := saveEvidenceImage(c)
	if fiberErr != nil {
		return fiberErr
	}

	var tts models.TeamTileSubmission
	err := database.DB.Where("tile_id = ? AND team_id = ?", tile.ID, team.ID).First(&tts).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tts = models.TeamTileSubmission{
			TileID: tile.ID,
			TeamID: team.ID,
			Status: models.StatusPending,
		}
		if err := database.DB.Create(&tts).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create submission",
			})
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load submission",
		})
	} else if tts.Status != models.StatusApproved {
		// New evidence reopens a declined or flagged submission; an approved
		// one stays approved.
		tts.Status = models.StatusPending
		if err := database.DB.Save(&tts).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update submission",
			})
		}
	}

	image := models.Submission{
		TeamTileSubmissionID: tts.ID,
		SubmittedBy:          userID,
		ImageURL:             imageURL,
	}
	if err := database.DB.Create(&image).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save evidence",
		})
	}

	var board models.Board
	database.DB.First(&board, "id = ?", tile.BoardID)

	WS.Broadcast(tile.BoardID, userID, WSEvent{
		Type:    EventSubmissionCreated,
		BoardID: tile.BoardID.String(),
		TeamID:  team.ID.String(),
		Data:    image,
	})
	go services.Webhook.SendSubmissionReceived(board.WebhookURL, board.Title, team.Name, tile.Title)

	// Best-effort: the upload already succeeded whatever happens here.
	result := engine.CheckAndAutoComplete(database.DB, tile.ID, team.ID)
	if result.AutoCompleted {
		announceCompletion(&board, tile, team)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"submission":    image,
		"status":        currentStatus(tile.ID, team.ID),
		"autoCompleted": result.AutoCompleted,
	})
}

// GetTileSubmissions lists a team's submission record for a tile. Organizers
// may address any team via ?teamId=; members see their own.
func GetTileSubmissions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	tile, fiberErr := findTileForParticipant(c)
	if fiberErr != nil {
		return fiberErr
	}

	var board models.Board
	database.DB.First(&board, "id = ?", tile.BoardID)

	var teamID uuid.UUID
	if parsed, err := uuid.Parse(c.Query("teamId")); err == nil && board.UserID == userID {
		teamID = parsed
	} else if team := findUserTeam(tile.BoardID, c); team != nil {
		teamID = team.ID
	} else {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not on a team for this board",
		})
	}

	var tts models.TeamTileSubmission
	err := database.DB.Preload("Images").
		Where("tile_id = ? AND team_id = ?", tile.ID, teamID).
		First(&tts).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(fiber.Map{"status": "not_submitted"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load submission",
		})
	}

	return c.JSON(tts)
}

// ReviewSubmission is the organizer's manual review action. Approved rows are
// terminal: the ratchet that applies to auto-completion applies here too.
func ReviewSubmission(c *fiber.Ctx) error {
	_, _, fiberErr := findTileForOrganizer(c)
	if fiberErr != nil {
		return fiberErr
	}

	submissionID, err := uuid.Parse(c.Params("submissionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID",
		})
	}

	var req models.ReviewSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	switch req.Status {
	case models.StatusApproved, models.StatusDeclined, models.StatusRequiresInteraction:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid review status",
		})
	}

	var tts models.TeamTileSubmission
	if err := database.DB.First(&tts, "id = ?", submissionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Submission not found",
		})
	}

	if tts.Status == models.StatusApproved && req.Status != models.StatusApproved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Approved submissions cannot be downgraded",
		})
	}

	tts.Status = req.Status
	if err := database.DB.Save(&tts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update submission",
		})
	}

	return c.JSON(tts)
}

// UpdateGoalProgress lets an organizer set a team's progress on a generic
// goal, then re-runs the completion check for the affected tile.
func UpdateGoalProgress(c *fiber.Ctx) error {
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

	var req struct {
		TeamID uuid.UUID `json:"teamId"`
		Value  float64   `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil || req.TeamID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Team ID and value are required",
		})
	}

	var team models.Team
	if err := database.DB.First(&team, "id = ? AND board_id = ?", req.TeamID, tile.BoardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found on this board",
		})
	}

	changed, err := engine.RecordProgress(database.DB, goal.ID, team.ID, req.Value)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record progress",
		})
	}

	result := engine.CheckAndAutoComplete(database.DB, tile.ID, team.ID)
	if result.AutoCompleted {
		var board models.Board
		database.DB.First(&board, "id = ?", tile.BoardID)
		announceCompletion(&board, tile, &team)
	}

	return c.JSON(fiber.Map{
		"changed":       changed,
		"autoCompleted": result.AutoCompleted,
	})
}

// announceCompletion fans a successful auto-completion out to the webhook,
// websocket room and organizer notifications. All downstream; nothing here
// can roll back the completion.
func announceCompletion(board *models.Board, tile *models.Tile, team *models.Team) {
	go services.Webhook.SendTileCompletion(board.WebhookURL, board.Title, team.Name, tile.Title)

	WS.Broadcast(board.ID, uuid.Nil, WSEvent{
		Type:    EventTileCompleted,
		BoardID: board.ID.String(),
		TeamID:  team.ID.String(),
		Data: map[string]interface{}{
			"tileId":    tile.ID.String(),
			"tileTitle": tile.Title,
			"teamName":  team.Name,
		},
	})

	notifyBoardOrganizer(*board, "tile_completed", "Tile completed!",
		team.Name+" completed \""+tile.Title+"\" on "+board.Title,
		map[string]interface{}{"boardId": board.ID.String(), "tileId": tile.ID.String()},
	)
}

func currentStatus(tileID, teamID uuid.UUID) string {
	var tts models.TeamTileSubmission
	if err := database.DB.Where("tile_id = ? AND team_id = ?", tileID, teamID).First(&tts).Error; err != nil {
		return "not_submitted"
	}
	return tts.Status
}
