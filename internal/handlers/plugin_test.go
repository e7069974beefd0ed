package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/clanbingo/bingo-api/internal/database"
	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.Tile{},
		&models.GoalGroup{},
		&models.Goal{},
		&models.ItemGoal{},
		&models.Team{},
		&models.TeamMember{},
		&models.TeamGoalProgress{},
		&models.TeamTileSubmission{},
		&models.Submission{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	database.DB = db
	return db
}

func newPluginTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/api/plugin/sync", PluginSync)
	app.Get("/api/plugin/board", PluginBoard)
	return app
}

// seedItemGoalBoard creates a board with one tile carrying a single item goal
// (target 1) and a team.
func seedItemGoalBoard(t *testing.T, db *gorm.DB) (*models.Tile, *models.Team, *models.Goal) {
	t.Helper()

	user := models.User{Email: uuid.New().String() + "@test.local", Name: "organizer"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	board := models.Board{UserID: user.ID, Title: "Clan Event", JoinCode: uuid.New().String()[:8]}
	if err := db.Create(&board).Error; err != nil {
		t.Fatalf("create board: %v", err)
	}
	tile := models.Tile{BoardID: board.ID, Title: "Godsword drop", Position: 0, Weight: 1}
	if err := db.Create(&tile).Error; err != nil {
		t.Fatalf("create tile: %v", err)
	}
	team := models.Team{BoardID: board.ID, Name: "Team A"}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}

	goal := models.Goal{TileID: tile.ID, GoalType: models.GoalTypeItem, TargetValue: 1}
	if err := db.Create(&goal).Error; err != nil {
		t.Fatalf("create goal: %v", err)
	}
	item := models.ItemGoal{GoalID: goal.ID, ItemID: 11802, BaseName: "Armadyl godsword"}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create item goal: %v", err)
	}
	return &tile, &team, &goal
}

func postSync(t *testing.T, app *fiber.App, token string, items []scannedItem) map[string]interface{} {
	t.Helper()

	body, err := json.Marshal(pluginSyncRequest{Items: items})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/plugin/sync", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Plugin-Token", token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func TestPluginSyncRejectsMissingToken(t *testing.T) {
	newHandlerTestDB(t)
	app := newPluginTestApp()

	req := httptest.NewRequest("POST", "/api/plugin/sync", bytes.NewReader([]byte(`{"items":[]}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPluginSyncRecordsProgressAndAutoCompletes(t *testing.T) {
	db := newHandlerTestDB(t)
	app := newPluginTestApp()
	tile, team, goal := seedItemGoalBoard(t, db)

	decoded := postSync(t, app, team.PluginToken, []scannedItem{
		{ItemID: 11802, Name: "Armadyl godsword", Quantity: 3},
	})

	if got := decoded["updatedGoals"].(float64); got != 1 {
		t.Errorf("updatedGoals = %v, want 1", got)
	}
	completed, _ := decoded["completedTiles"].([]interface{})
	if len(completed) != 1 || completed[0].(string) != tile.ID.String() {
		t.Errorf("completedTiles = %v, want [%s]", completed, tile.ID)
	}

	// Quantity above target is capped at the target
	var progress models.TeamGoalProgress
	if err := db.Where("goal_id = ? AND team_id = ?", goal.ID, team.ID).First(&progress).Error; err != nil {
		t.Fatalf("load progress: %v", err)
	}
	if progress.CurrentValue != 1 {
		t.Errorf("currentValue = %v, want capped 1", progress.CurrentValue)
	}

	var sub models.TeamTileSubmission
	if err := db.Where("tile_id = ? AND team_id = ?", tile.ID, team.ID).First(&sub).Error; err != nil {
		t.Fatalf("load submission: %v", err)
	}
	if sub.Status != models.StatusApproved {
		t.Errorf("status = %s, want approved", sub.Status)
	}
}

func TestPluginSyncRescanIsIdempotent(t *testing.T) {
	db := newHandlerTestDB(t)
	app := newPluginTestApp()
	_, team, _ := seedItemGoalBoard(t, db)

	scan := []scannedItem{{ItemID: 11802, Name: "Armadyl godsword", Quantity: 1}}
	postSync(t, app, team.PluginToken, scan)
	decoded := postSync(t, app, team.PluginToken, scan)

	if got := decoded["updatedGoals"].(float64); got != 0 {
		t.Errorf("rescan updatedGoals = %v, want 0", got)
	}
	if got := decoded["checkedTiles"].(float64); got != 0 {
		t.Errorf("rescan checkedTiles = %v, want 0", got)
	}

	var count int64
	db.Model(&models.TeamTileSubmission{}).Count(&count)
	if count != 1 {
		t.Errorf("submission rows = %d, want 1", count)
	}
}

func TestPluginSyncMatchesByBaseNameCaseInsensitive(t *testing.T) {
	db := newHandlerTestDB(t)
	app := newPluginTestApp()
	_, team, goal := seedItemGoalBoard(t, db)

	decoded := postSync(t, app, team.PluginToken, []scannedItem{
		{ItemID: 99999, Name: "ARMADYL GODSWORD", Quantity: 1},
	})

	if got := decoded["updatedGoals"].(float64); got != 1 {
		t.Errorf("updatedGoals = %v, want 1", got)
	}
	var progress models.TeamGoalProgress
	if err := db.Where("goal_id = ? AND team_id = ?", goal.ID, team.ID).First(&progress).Error; err != nil {
		t.Fatalf("load progress: %v", err)
	}
}

func TestPluginBoardReturnsEvaluatedTiles(t *testing.T) {
	db := newHandlerTestDB(t)
	app := newPluginTestApp()
	tile, team, _ := seedItemGoalBoard(t, db)

	req := httptest.NewRequest("GET", "/api/plugin/board", nil)
	req.Header.Set("X-Plugin-Token", team.PluginToken)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var decoded struct {
		Tiles []struct {
			Tile         models.Tile `json:"tile"`
			TileComplete bool        `json:"tileComplete"`
			Status       string      `json:"status"`
		} `json:"tiles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(decoded.Tiles) != 1 {
		t.Fatalf("tiles = %d, want 1", len(decoded.Tiles))
	}
	if decoded.Tiles[0].Tile.ID != tile.ID {
		t.Errorf("tile id = %s, want %s", decoded.Tiles[0].Tile.ID, tile.ID)
	}
	if decoded.Tiles[0].TileComplete {
		t.Error("tile with no progress must be incomplete")
	}
	if decoded.Tiles[0].Status != "not_submitted" {
		t.Errorf("status = %s, want not_submitted", decoded.Tiles[0].Status)
	}
}

func TestItemMatches(t *testing.T) {
	variant := "Avernic defender (l)"
	cases := []struct {
		name    string
		goal    models.ItemGoal
		scanned scannedItem
		want    bool
	}{
		{
			name:    "by item id",
			goal:    models.ItemGoal{ItemID: 11802, BaseName: "Armadyl godsword"},
			scanned: scannedItem{ItemID: 11802, Name: "Something else"},
			want:    true,
		},
		{
			name:    "by base name ignoring case",
			goal:    models.ItemGoal{ItemID: 11802, BaseName: "Armadyl godsword"},
			scanned: scannedItem{ItemID: 0, Name: "armadyl GODSWORD"},
			want:    true,
		},
		{
			name:    "no match",
			goal:    models.ItemGoal{ItemID: 11802, BaseName: "Armadyl godsword"},
			scanned: scannedItem{ItemID: 4151, Name: "Abyssal whip"},
			want:    false,
		},
		{
			name:    "exact variant requires matching variant",
			goal:    models.ItemGoal{ItemID: 22322, BaseName: "Avernic defender", ExactVariant: &variant},
			scanned: scannedItem{ItemID: 22322, Name: "Avernic defender", Variant: "plain"},
			want:    false,
		},
		{
			name:    "exact variant satisfied",
			goal:    models.ItemGoal{ItemID: 22322, BaseName: "Avernic defender", ExactVariant: &variant},
			scanned: scannedItem{ItemID: 22322, Name: "Avernic defender", Variant: variant},
			want:    true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := itemMatches(&tc.goal, tc.scanned); got != tc.want {
				t.Errorf("itemMatches = %v, want %v", got, tc.want)
			}
		})
	}
}
