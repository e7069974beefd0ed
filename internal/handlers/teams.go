package handlers

import (
	"strings"

	"github.com/clanbingo/bingo-api/internal/database"
	"github.com/clanbingo/bingo-api/internal/middleware"
	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// findUserTeam returns the team the current user belongs to on a board, or
// nil when they have none (organizers reviewing a board, typically).
func findUserTeam(boardID uuid.UUID, c *fiber.Ctx) *models.Team {
	userID := middleware.GetUserID(c)

	var team models.Team
	err := database.DB.
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("teams.board_id = ? AND team_members.user_id = ?", boardID, userID).
		First(&team).Error
	if err != nil {
		return nil
	}
	return &team
}

// CreateTeam adds a team to a board (organizer only).
func CreateTeam(c *fiber.Ctx) error {
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

	var req models.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Team name is required",
		})
	}

	team := models.Team{
		BoardID: board.ID,
		Name:    strings.TrimSpace(req.Name),
	}
	if err := database.DB.Create(&team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(team)
}

// GetTeams lists a board's teams with members.
func GetTeams(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var board models.Board
	if err := database.DB.First(&board, "id = ?", boardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if board.UserID != userID && !isBoardParticipant(boardID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	var teams []models.Team
	database.DB.Where("board_id = ?", boardID).
		Preload("Members.User").
		Find(&teams)

	return c.JSON(teams)
}

// JoinTeam joins a team on a board using the board's join code.
func JoinTeam(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.JoinTeamRequest
	if err := c.BodyParser(&req); err != nil || req.JoinCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Join code and team ID are required",
		})
	}

	var board models.Board
	if err := database.DB.Where("join_code = ?", strings.ToUpper(req.JoinCode)).First(&board).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invalid join code",
		})
	}

	var team models.Team
	if err := database.DB.Where("id = ? AND board_id = ?", req.TeamID, board.ID).First(&team).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found on this board",
		})
	}

	// One team per board per user
	if existing := findUserTeam(board.ID, c); existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You are already on a team for this board",
		})
	}

	member := models.TeamMember{
		TeamID: team.ID,
		UserID: userID,
	}
	if err := database.DB.Create(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to join team",
		})
	}

	notifyBoardOrganizer(board, "member_joined", "New team member",
		"Someone joined "+team.Name+" on "+board.Title,
		map[string]interface{}{"boardId": board.ID.String(), "teamId": team.ID.String()},
	)

	return c.Status(fiber.StatusCreated).JSON(member)
}

// GetPluginToken returns the caller's team token for the RuneLite plugin.
func GetPluginToken(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	team := findUserTeam(boardID, c)
	if team == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "You are not on a team for this board",
		})
	}

	return c.JSON(fiber.Map{
		"teamId":      team.ID,
		"pluginToken": team.PluginToken,
	})
}

// RotatePluginToken invalidates the team's current plugin token.
func RotatePluginToken(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	team := findUserTeam(boardID, c)
	if team == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "You are not on a team for this board",
		})
	}

	team.PluginToken = uuid.New().String()
	if err := database.DB.Save(team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to rotate token",
		})
	}

	return c.JSON(fiber.Map{
		"teamId":      team.ID,
		"pluginToken": team.PluginToken,
	})
}
