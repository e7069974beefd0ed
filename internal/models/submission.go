package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission statuses. A missing TeamTileSubmission row means the team has
// not submitted anything for the tile yet.
const (
	StatusPending             = "pending"
	StatusApproved            = "approved"
	StatusRequiresInteraction = "requires_interaction"
	StatusDeclined            = "declined"
)

// TeamTileSubmission is the per-team review record for one tile. The intake
// path only ever creates it as pending or leaves an approved row alone;
// advancing to approved is the auto-completion controller's job (or an
// explicit organizer review action).
type TeamTileSubmission struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	TileID    uuid.UUID    `json:"tileId" gorm:"type:uuid;index:idx_tile_team,unique;not null"`
	TeamID    uuid.UUID    `json:"teamId" gorm:"type:uuid;index:idx_tile_team,unique;not null"`
	Status    string       `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Images    []Submission `json:"images,omitempty" gorm:"foreignKey:TeamTileSubmissionID"`
}

func (s *TeamTileSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Submission is one piece of evidence (an image) attached to a team's tile
// submission.
type Submission struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TeamTileSubmissionID uuid.UUID `json:"teamTileSubmissionId" gorm:"type:uuid;index;not null"`
	SubmittedBy          uuid.UUID `json:"submittedBy" gorm:"type:uuid;not null"`
	ImageURL             string    `json:"imageUrl" gorm:"not null"`
	CreatedAt            time.Time `json:"createdAt"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Submission DTOs
type ReviewSubmissionRequest struct {
	Status string `json:"status" validate:"required"` // approved, declined, requires_interaction
}
