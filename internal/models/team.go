package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	BoardID     uuid.UUID      `json:"boardId" gorm:"type:uuid;index;not null"`
	Name        string         `json:"name" gorm:"not null"`
	PluginToken string         `json:"-" gorm:"uniqueIndex;not null"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Members     []TeamMember   `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.PluginToken == "" {
		t.PluginToken = uuid.New().String()
	}
	return nil
}

type TeamMember struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TeamID    uuid.UUID `json:"teamId" gorm:"type:uuid;index:idx_team_user,unique;not null"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;index:idx_team_user,unique;not null"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Team DTOs
type CreateTeamRequest struct {
	Name string `json:"name" validate:"required"`
}

type JoinTeamRequest struct {
	JoinCode string    `json:"joinCode" validate:"required"`
	TeamID   uuid.UUID `json:"teamId" validate:"required"`
}
