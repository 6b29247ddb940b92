package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `json:"description,omitempty"`
	ListID      uuid.UUID                   `gorm:"type:uuid;not null;index" json:"list_id"`
	BoardID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"board_id"`
	OwnerID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"owner_id"`
	Priority    Priority                    `gorm:"not null" json:"priority"`
	Completed   bool                        `gorm:"not null" json:"completed"`
	DueDate     *time.Time                  `json:"due_date,omitempty"`
	Attachments datatypes.JSONSlice[string] `json:"attachments,omitempty"`
	Position    int                         `gorm:"not null" json:"position"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
