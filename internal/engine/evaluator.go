package engine

import (
	"sort"

	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NodeKind discriminates the two evaluation node kinds. Switches over it are
// exhaustive: a node is either a leaf goal or a logic group.
type NodeKind string

const (
	NodeKindGoal  NodeKind = "goal"
	NodeKindGroup NodeKind = "group"
)

// EvalNode is one node of the evaluated requirement tree. Built fresh on
// every evaluation and never cached, since team progress can change between
// calls. Group fields are zero-valued on goal nodes and vice versa.
type EvalNode struct {
	Kind       NodeKind  `json:"type"`
	ID         uuid.UUID `json:"id"`
	IsComplete bool      `json:"isComplete"`

	// Group nodes. TotalCount is the display denominator: minRequiredGoals
	// for OR groups, the child count for AND groups.
	Operator         string      `json:"operator,omitempty"`
	MinRequiredGoals int         `json:"minRequiredGoals,omitempty"`
	CompletedCount   int         `json:"completedCount"`
	TotalCount       int         `json:"totalCount"`
	Children         []*EvalNode `json:"children,omitempty"`

	// Goal nodes.
	CurrentValue float64 `json:"currentValue"`
	TargetValue  float64 `json:"targetValue"`

	orderIndex int
}

// TileEvaluation is the result of evaluating one tile for one team.
type TileEvaluation struct {
	TileID       uuid.UUID   `json:"tileId"`
	TeamID       uuid.UUID   `json:"teamId"`
	RootNodes    []*EvalNode `json:"rootNodes"`
	TileComplete bool        `json:"tileComplete"`
}

// Evaluate bulk-loads a tile's groups, goals and the team's progress rows,
// then computes completion for every node bottom-up. Pure read: nothing is
// written. A tile with no tree is not an error, just never complete.
func Evaluate(db *gorm.DB, tileID, teamID uuid.UUID) (*TileEvaluation, error) {
	var groups []models.GoalGroup
	if err := db.Where("tile_id = ?", tileID).Find(&groups).Error; err != nil {
		return nil, err
	}
	var goals []models.Goal
	if err := db.Where("tile_id = ?", tileID).Find(&goals).Error; err != nil {
		return nil, err
	}

	progress := make(map[uuid.UUID]float64)
	if len(goals) > 0 {
		goalIDs := make([]uuid.UUID, len(goals))
		for i, g := range goals {
			goalIDs[i] = g.ID
		}
		var rows []models.TeamGoalProgress
		if err := db.Where("team_id = ? AND goal_id IN ?", teamID, goalIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			progress[row.GoalID] = row.CurrentValue
		}
	}

	roots := evaluateForest(groups, goals, progress)

	complete := len(roots) > 0
	for _, node := range roots {
		if !node.IsComplete {
			complete = false
			break
		}
	}

	return &TileEvaluation{
		TileID:       tileID,
		TeamID:       teamID,
		RootNodes:    roots,
		TileComplete: complete,
	}, nil
}

// GetDetailedEvaluation is the read API for progress displays and the plugin's
// JSON goal-tree representation.
func GetDetailedEvaluation(db *gorm.DB, tileID, teamID uuid.UUID) ([]*EvalNode, error) {
	eval, err := Evaluate(db, tileID, teamID)
	if err != nil {
		return nil, err
	}
	return eval.RootNodes, nil
}

// evaluateForest runs the post-order walk over in-memory rows. Children are
// indexed by parent id up front (uuid.Nil keys the root level) so the
// recursion never touches storage.
func evaluateForest(groups []models.GoalGroup, goals []models.Goal, progress map[uuid.UUID]float64) []*EvalNode {
	groupsByParent := make(map[uuid.UUID][]*models.GoalGroup)
	for i := range groups {
		key := parentKey(groups[i].ParentGroupID)
		groupsByParent[key] = append(groupsByParent[key], &groups[i])
	}
	goalsByParent := make(map[uuid.UUID][]*models.Goal)
	for i := range goals {
		key := parentKey(goals[i].ParentGroupID)
		goalsByParent[key] = append(goalsByParent[key], &goals[i])
	}

	var evaluateGroup func(group *models.GoalGroup) *EvalNode
	evaluateChildren := func(parentID uuid.UUID) []*EvalNode {
		var children []*EvalNode
		for _, sub := range groupsByParent[parentID] {
			children = append(children, evaluateGroup(sub))
		}
		for _, goal := range goalsByParent[parentID] {
			children = append(children, evaluateGoal(goal, progress))
		}
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].orderIndex < children[j].orderIndex
		})
		return children
	}

	evaluateGroup = func(group *models.GoalGroup) *EvalNode {
		children := evaluateChildren(group.ID)

		completed := 0
		for _, child := range children {
			if child.IsComplete {
				completed++
			}
		}

		minRequired := group.MinRequiredGoals
		if minRequired < 1 {
			// Legacy groups predate the field; treat as "any one child".
			minRequired = 1
		}

		node := &EvalNode{
			Kind:             NodeKindGroup,
			ID:               group.ID,
			Operator:         group.LogicalOperator,
			MinRequiredGoals: minRequired,
			CompletedCount:   completed,
			Children:         children,
			orderIndex:       group.OrderIndex,
		}

		switch group.LogicalOperator {
		case models.OperatorOR:
			node.TotalCount = minRequired
			node.IsComplete = completed >= minRequired
		default:
			// AND: an empty group is never complete.
			node.TotalCount = len(children)
			node.IsComplete = len(children) > 0 && completed == len(children)
		}
		return node
	}

	return evaluateChildren(uuid.Nil)
}

func evaluateGoal(goal *models.Goal, progress map[uuid.UUID]float64) *EvalNode {
	current := progress[goal.ID] // missing row reads as 0
	return &EvalNode{
		Kind:         NodeKindGoal,
		ID:           goal.ID,
		IsComplete:   current >= goal.TargetValue,
		CurrentValue: current,
		TargetValue:  goal.TargetValue,
		orderIndex:   goal.OrderIndex,
	}
}

func parentKey(parentGroupID *uuid.UUID) uuid.UUID {
	if parentGroupID == nil {
		return uuid.Nil
	}
	return *parentGroupID
}
