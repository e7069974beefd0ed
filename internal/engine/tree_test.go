package engine

import (
	"errors"
	"testing"

	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestCreateGroupAppendsAfterSiblings(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	first := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	goal := mustCreateGoal(t, db, tile.ID, nil, 1)
	second := mustCreateGroup(t, db, tile.ID, "OR", nil, 1)

	if first.OrderIndex != 0 {
		t.Errorf("first group order = %d, want 0", first.OrderIndex)
	}
	if goal.OrderIndex != 1 {
		t.Errorf("goal order = %d, want 1", goal.OrderIndex)
	}
	if second.OrderIndex != 2 {
		t.Errorf("second group order = %d, want 2", second.OrderIndex)
	}
}

func TestCreateGroupRejectsCrossTileParent(t *testing.T) {
	db := newTestDB(t)
	tileA, _ := newTestTile(t, db)
	tileB, _ := newTestTile(t, db)

	parentOnB := mustCreateGroup(t, db, tileB.ID, "AND", nil, 1)

	_, err := CreateGroup(db, tileA.ID, models.CreateGroupRequest{
		LogicalOperator: "AND",
		ParentGroupID:   &parentOnB.ID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tile parent: got %v, want ErrNotFound", err)
	}
}

func TestCreateGroupRejectsUnknownOperator(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	_, err := CreateGroup(db, tile.ID, models.CreateGroupRequest{LogicalOperator: "XOR"})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("unknown operator: got %v, want ErrInvalidState", err)
	}
}

func TestUpdateGroupNormalizesBlankName(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)
	group := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)

	updated, err := UpdateGroup(db, group.ID, models.UpdateGroupRequest{Name: ptr("  Boss drops  ")})
	if err != nil {
		t.Fatalf("update group: %v", err)
	}
	if updated.Name == nil || *updated.Name != "Boss drops" {
		t.Errorf("name = %v, want %q", updated.Name, "Boss drops")
	}

	updated, err = UpdateGroup(db, group.ID, models.UpdateGroupRequest{Name: ptr("   ")})
	if err != nil {
		t.Fatalf("update group: %v", err)
	}
	if updated.Name != nil {
		t.Errorf("blank name = %q, want nil", *updated.Name)
	}
}

func TestUpdateGroupFloorsMinRequired(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)
	group := mustCreateGroup(t, db, tile.ID, "OR", nil, 3)

	updated, err := UpdateGroup(db, group.ID, models.UpdateGroupRequest{MinRequiredGoals: ptr(0)})
	if err != nil {
		t.Fatalf("update group: %v", err)
	}
	if updated.MinRequiredGoals != 1 {
		t.Errorf("minRequiredGoals = %d, want 1", updated.MinRequiredGoals)
	}
}

func TestDeleteGroupPromotesChildrenToRoot(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	root := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	childGroup := mustCreateGroup(t, db, tile.ID, "OR", &root.ID, 1)
	childGoal := mustCreateGoal(t, db, tile.ID, &root.ID, 1)

	if err := DeleteGroup(db, root.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	var g models.GoalGroup
	if err := db.First(&g, "id = ?", childGroup.ID).Error; err != nil {
		t.Fatalf("load child group: %v", err)
	}
	if g.ParentGroupID != nil {
		t.Errorf("child group parent = %v, want root (nil)", g.ParentGroupID)
	}

	var goal models.Goal
	if err := db.First(&goal, "id = ?", childGoal.ID).Error; err != nil {
		t.Fatalf("load child goal: %v", err)
	}
	if goal.ParentGroupID != nil {
		t.Errorf("child goal parent = %v, want root (nil)", goal.ParentGroupID)
	}

	if err := db.First(&models.GoalGroup{}, "id = ?", root.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("deleted group still present (err = %v)", err)
	}
}

func TestDeleteGroupPromotesChildrenToGrandparent(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	grandparent := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	parent := mustCreateGroup(t, db, tile.ID, "AND", &grandparent.ID, 1)
	child := mustCreateGoal(t, db, tile.ID, &parent.ID, 1)

	if err := DeleteGroup(db, parent.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	var goal models.Goal
	if err := db.First(&goal, "id = ?", child.ID).Error; err != nil {
		t.Fatalf("load goal: %v", err)
	}
	if goal.ParentGroupID == nil || *goal.ParentGroupID != grandparent.ID {
		t.Errorf("goal parent = %v, want grandparent %s", goal.ParentGroupID, grandparent.ID)
	}
}

func TestDeleteGroupNotFound(t *testing.T) {
	db := newTestDB(t)
	newTestTile(t, db)

	if err := DeleteGroup(db, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// snapshotParents captures every group's parent pointer so tests can assert
// a rejected move wrote nothing.
func snapshotParents(t *testing.T, db *gorm.DB, tileID uuid.UUID) map[uuid.UUID]*uuid.UUID {
	t.Helper()
	var groups []models.GoalGroup
	if err := db.Where("tile_id = ?", tileID).Find(&groups).Error; err != nil {
		t.Fatalf("load groups: %v", err)
	}
	snap := make(map[uuid.UUID]*uuid.UUID, len(groups))
	for _, g := range groups {
		snap[g.ID] = g.ParentGroupID
	}
	return snap
}

func TestMoveGroupRejectsCycles(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	// a -> b -> c chain
	a := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	b := mustCreateGroup(t, db, tile.ID, "AND", &a.ID, 1)
	c := mustCreateGroup(t, db, tile.ID, "AND", &b.ID, 1)

	cases := []struct {
		name   string
		moving uuid.UUID
		target uuid.UUID
	}{
		{name: "under own child", moving: a.ID, target: b.ID},
		{name: "under own grandchild", moving: a.ID, target: c.ID},
		{name: "under itself", moving: b.ID, target: b.ID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := snapshotParents(t, db, tile.ID)

			err := MoveGroupToGroup(db, tc.moving, models.MoveItemRequest{TargetParentID: &tc.target})
			if !errors.Is(err, ErrCircularReference) {
				t.Fatalf("got %v, want ErrCircularReference", err)
			}

			after := snapshotParents(t, db, tile.ID)
			for id, parent := range before {
				got := after[id]
				if (got == nil) != (parent == nil) || (got != nil && *got != *parent) {
					t.Errorf("group %s parent changed after rejected move", id)
				}
			}
		})
	}
}

func TestMoveGroupToSiblingSucceeds(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	a := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	b := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)

	if err := MoveGroupToGroup(db, b.ID, models.MoveItemRequest{TargetParentID: &a.ID}); err != nil {
		t.Fatalf("move group: %v", err)
	}

	var moved models.GoalGroup
	if err := db.First(&moved, "id = ?", b.ID).Error; err != nil {
		t.Fatalf("load group: %v", err)
	}
	if moved.ParentGroupID == nil || *moved.ParentGroupID != a.ID {
		t.Errorf("parent = %v, want %s", moved.ParentGroupID, a.ID)
	}
}

func TestMoveGroupToRoot(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	a := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	b := mustCreateGroup(t, db, tile.ID, "AND", &a.ID, 1)

	if err := MoveGroupToGroup(db, b.ID, models.MoveItemRequest{}); err != nil {
		t.Fatalf("move to root: %v", err)
	}

	var moved models.GoalGroup
	db.First(&moved, "id = ?", b.ID)
	if moved.ParentGroupID != nil {
		t.Errorf("parent = %v, want nil", moved.ParentGroupID)
	}
}

func TestMoveGoalHasNoCycleCheck(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	group := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	goal := mustCreateGoal(t, db, tile.ID, nil, 1)

	if err := MoveGoalToGroup(db, goal.ID, models.MoveItemRequest{TargetParentID: &group.ID}); err != nil {
		t.Fatalf("move goal: %v", err)
	}

	var moved models.Goal
	db.First(&moved, "id = ?", goal.ID)
	if moved.ParentGroupID == nil || *moved.ParentGroupID != group.ID {
		t.Errorf("parent = %v, want %s", moved.ParentGroupID, group.ID)
	}
}

func TestReorderItemsFailsWholeBatchOnUnknownID(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	group := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	goal := mustCreateGoal(t, db, tile.ID, nil, 1)

	err := ReorderItems(db, tile.ID, []models.ReorderEntry{
		{ID: goal.ID, Type: "goal", OrderIndex: 5},
		{ID: uuid.New(), Type: "group", OrderIndex: 6},
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}

	// The valid entry must not have been applied
	var reloaded models.Goal
	db.First(&reloaded, "id = ?", goal.ID)
	if reloaded.OrderIndex != 1 {
		t.Errorf("goal order = %d, want untouched 1", reloaded.OrderIndex)
	}

	var g models.GoalGroup
	db.First(&g, "id = ?", group.ID)
	if g.OrderIndex != 0 {
		t.Errorf("group order = %d, want untouched 0", g.OrderIndex)
	}
}

func TestReorderItemsAppliesBatch(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	group := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	goal := mustCreateGoal(t, db, tile.ID, nil, 1)

	err := ReorderItems(db, tile.ID, []models.ReorderEntry{
		{ID: goal.ID, Type: "goal", OrderIndex: 0},
		{ID: group.ID, Type: "group", OrderIndex: 1},
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	var reloadedGoal models.Goal
	db.First(&reloadedGoal, "id = ?", goal.ID)
	var reloadedGroup models.GoalGroup
	db.First(&reloadedGroup, "id = ?", group.ID)
	if reloadedGoal.OrderIndex != 0 || reloadedGroup.OrderIndex != 1 {
		t.Errorf("order = (goal %d, group %d), want (0, 1)",
			reloadedGoal.OrderIndex, reloadedGroup.OrderIndex)
	}
}

func TestMoveMultipleItemsReportsPartialFailure(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)

	a := mustCreateGroup(t, db, tile.ID, "AND", nil, 1)
	b := mustCreateGroup(t, db, tile.ID, "AND", &a.ID, 1)
	goal := mustCreateGoal(t, db, tile.ID, nil, 1)

	// Moving the goal under b is fine; moving a under b is a cycle.
	result, err := MoveMultipleItems(db, tile.ID, models.BatchMoveRequest{
		TargetParentID: &b.ID,
		Items: []models.BatchMoveEntry{
			{ID: goal.ID, Type: "goal"},
			{ID: a.ID, Type: "group"},
		},
	})
	if err != nil {
		t.Fatalf("batch move: %v", err)
	}

	if result.MovedCount != 1 || result.FailedCount != 1 {
		t.Errorf("counts = (%d moved, %d failed), want (1, 1)", result.MovedCount, result.FailedCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}

	// Goal moved despite the group's failure
	var moved models.Goal
	db.First(&moved, "id = ?", goal.ID)
	if moved.ParentGroupID == nil || *moved.ParentGroupID != b.ID {
		t.Errorf("goal parent = %v, want %s", moved.ParentGroupID, b.ID)
	}

	// Group untouched
	var g models.GoalGroup
	db.First(&g, "id = ?", a.ID)
	if g.ParentGroupID != nil {
		t.Errorf("group parent = %v, want nil", g.ParentGroupID)
	}
}

func TestMoveMultipleItemsRejectsUnknownTarget(t *testing.T) {
	db := newTestDB(t)
	tile, _ := newTestTile(t, db)
	goal := mustCreateGoal(t, db, tile.ID, nil, 1)

	missing := uuid.New()
	_, err := MoveMultipleItems(db, tile.ID, models.BatchMoveRequest{
		TargetParentID: &missing,
		Items:          []models.BatchMoveEntry{{ID: goal.ID, Type: "goal"}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
