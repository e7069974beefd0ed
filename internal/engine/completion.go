package engine

import (
	"errors"
	"log"

	"github.com/clanbingo/bingo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompletionResult reports one auto-completion check. Success is false only
// on storage failure; an incomplete tile is a successful check with
// ShouldComplete false.
type CompletionResult struct {
	Success         bool                       `json:"success"`
	ShouldComplete  bool                       `json:"shouldComplete"`
	AutoCompleted   bool                       `json:"autoCompleted"`
	AlreadyApproved bool                       `json:"alreadyApproved"`
	WasCreated      bool                       `json:"wasCreated"`
	Submission      *models.TeamTileSubmission `json:"submission,omitempty"`
}

// CheckAndAutoComplete evaluates a tile for a team and, when the whole tree
// is satisfied, advances the team's submission to approved. The transition is
// a one-way ratchet: an approved submission is never downgraded, even if a
// later tree edit makes the evaluation come back incomplete.
//
// This is always a best-effort secondary step of some primary operation
// (submission upload, item scan, organizer edit), so errors are logged and
// reported through the result rather than returned — callers must not fail
// their own work because this check failed.
func CheckAndAutoComplete(db *gorm.DB, tileID, teamID uuid.UUID) CompletionResult {
	eval, err := Evaluate(db, tileID, teamID)
	if err != nil {
		log.Printf("completion: evaluate tile %s team %s: %v", tileID, teamID, err)
		return CompletionResult{}
	}

	if !eval.TileComplete {
		return CompletionResult{Success: true}
	}

	var sub models.TeamTileSubmission
	err = db.Where("tile_id = ? AND team_id = ?", tileID, teamID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = models.TeamTileSubmission{
			TileID: tileID,
			TeamID: teamID,
			Status: models.StatusApproved,
		}
		if createErr := db.Create(&sub).Error; createErr != nil {
			// A concurrent check may have created the row first; the unique
			// (tile, team) key makes the retry converge.
			if retryErr := db.Where("tile_id = ? AND team_id = ?", tileID, teamID).First(&sub).Error; retryErr != nil {
				log.Printf("completion: create submission tile %s team %s: %v", tileID, teamID, createErr)
				return CompletionResult{ShouldComplete: true}
			}
		} else {
			return CompletionResult{
				Success:        true,
				ShouldComplete: true,
				AutoCompleted:  true,
				WasCreated:     true,
				Submission:     &sub,
			}
		}
	} else if err != nil {
		log.Printf("completion: load submission tile %s team %s: %v", tileID, teamID, err)
		return CompletionResult{}
	}

	if sub.Status == models.StatusApproved {
		return CompletionResult{
			Success:         true,
			ShouldComplete:  true,
			AlreadyApproved: true,
			Submission:      &sub,
		}
	}

	sub.Status = models.StatusApproved
	if err := db.Save(&sub).Error; err != nil {
		log.Printf("completion: approve submission tile %s team %s: %v", tileID, teamID, err)
		return CompletionResult{ShouldComplete: true}
	}

	return CompletionResult{
		Success:        true,
		ShouldComplete: true,
		AutoCompleted:  true,
		Submission:     &sub,
	}
}
