package engine

import (
	"fmt"
	"testing"

	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// newTestTile creates a board with one tile and one team, the minimal fixture
// for tree and completion tests.
func newTestTile(t *testing.T, db *gorm.DB) (*models.Tile, *models.Team) {
	t.Helper()

	user := models.User{Email: uuid.New().String() + "@test.local", Name: "organizer"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	board := models.Board{UserID: user.ID, Title: "Test Event", JoinCode: uuid.New().String()[:8]}
	if err := db.Create(&board).Error; err != nil {
		t.Fatalf("create board: %v", err)
	}
	tile := models.Tile{BoardID: board.ID, Title: "Test Tile", Position: 0, Weight: 1}
	if err := db.Create(&tile).Error; err != nil {
		t.Fatalf("create tile: %v", err)
	}
	team := models.Team{BoardID: board.ID, Name: "Team A"}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}
	return &tile, &team
}

func mustCreateGroup(t *testing.T, db *gorm.DB, tileID uuid.UUID, operator string, parentID *uuid.UUID, minRequired int) *models.GoalGroup {
	t.Helper()
	group, err := CreateGroup(db, tileID, models.CreateGroupRequest{
		LogicalOperator:  operator,
		ParentGroupID:    parentID,
		MinRequiredGoals: &minRequired,
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}

func mustCreateGoal(t *testing.T, db *gorm.DB, tileID uuid.UUID, parentID *uuid.UUID, target float64) *models.Goal {
	t.Helper()
	goal, err := CreateGoal(db, tileID, models.Goal{
		ParentGroupID: parentID,
		GoalType:      models.GoalTypeGeneric,
		TargetValue:   target,
	}, nil)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return goal
}

func setProgress(t *testing.T, db *gorm.DB, goalID, teamID uuid.UUID, value float64) {
	t.Helper()
	if _, err := RecordProgress(db, goalID, teamID, value); err != nil {
		t.Fatalf("record progress: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
