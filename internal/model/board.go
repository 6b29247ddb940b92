package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultBoardTitle = "My Board"
	DefaultListTitle  = "To Do"
)

type Board struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	IsDefault bool      `gorm:"not null" json:"is_default"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Board) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// DefaultBoardID derives the id of an owner's default board. Every writer
// computes the same id, so concurrent bootstraps collide on the primary key
// instead of creating a second default board.
func DefaultBoardID(ownerID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(ownerID, []byte("default-board"))
}

// DefaultListID derives the id of the default list of a board.
func DefaultListID(boardID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(boardID, []byte("default-list"))
}
