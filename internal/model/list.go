package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type List struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *List) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Protected reports whether the list is the leading list of a default board,
// which clients should not offer for deletion. The store does not enforce it.
func (l List) Protected(board Board) bool {
	return board.IsDefault && l.BoardID == board.ID && l.Position == 0
}
