package routes

import (
	"github.com/clanbingo/bingo-api/internal/handlers"
	"github.com/clanbingo/bingo-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	// RuneLite plugin endpoints authenticate with a per-team token
	plugin := api.Group("/plugin")
	plugin.Post("/sync", handlers.PluginSync)
	plugin.Get("/board", handlers.PluginBoard)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)

	boards := protected.Group("/boards")
	boards.Get("/", handlers.GetBoards)
	boards.Post("/", handlers.CreateBoard)
	boards.Get("/:id", handlers.GetBoard)
	boards.Put("/:id", handlers.UpdateBoard)
	boards.Delete("/:id", handlers.DeleteBoard)

	boards.Post("/:id/tiles", handlers.CreateTile)

	// Teams
	boards.Post("/:id/teams", handlers.CreateTeam)
	boards.Get("/:id/teams", handlers.GetTeams)
	boards.Get("/:id/plugin-token", handlers.GetPluginToken)
	boards.Post("/:id/plugin-token/rotate", handlers.RotatePluginToken)
	protected.Post("/teams/join", handlers.JoinTeam)

	tiles := protected.Group("/tiles")
	tiles.Put("/:tileId", handlers.UpdateTile)
	tiles.Delete("/:tileId", handlers.DeleteTile)
	tiles.Get("/:tileId/tree", handlers.GetTileTree)

	// Requirement-tree editing (organizer)
	tiles.Post("/:tileId/groups", handlers.CreateGoalGroup)
	tiles.Put("/:tileId/groups/:groupId", handlers.UpdateGoalGroup)
	tiles.Delete("/:tileId/groups/:groupId", handlers.DeleteGoalGroup)
	tiles.Post("/:tileId/groups/:groupId/move", handlers.MoveGroup)
	tiles.Post("/:tileId/goals", handlers.CreateGoal)
	tiles.Put("/:tileId/goals/:goalId", handlers.UpdateGoal)
	tiles.Delete("/:tileId/goals/:goalId", handlers.DeleteGoal)
	tiles.Post("/:tileId/goals/:goalId/move", handlers.MoveGoal)
	tiles.Post("/:tileId/reorder", handlers.ReorderTreeItems)
	tiles.Post("/:tileId/batch-move", handlers.BatchMoveTreeItems)

	// Progress + submissions
	tiles.Post("/:tileId/goals/:goalId/progress", handlers.UpdateGoalProgress)
	tiles.Post("/:tileId/submissions", handlers.CreateSubmission)
	tiles.Get("/:tileId/submissions", handlers.GetTileSubmissions)
	tiles.Put("/:tileId/submissions/:submissionId/review", handlers.ReviewSubmission)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// File upload
	protected.Post("/upload", handlers.UploadImage)

	// WebSocket for real-time board updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/boards/:id", websocket.New(handlers.HandleWebSocket))
}
