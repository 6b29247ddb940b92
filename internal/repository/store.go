package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Boards       *BoardRepository
	Lists        *ListRepository
	Tasks        *TaskRepository
	Usage        *UsageRepository
	ChatSessions *ChatSessionRepository
	Users        *UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Boards:       NewBoardRepository(db),
		Lists:        NewListRepository(db),
		Tasks:        NewTaskRepository(db),
		Usage:        NewUsageRepository(db),
		ChatSessions: NewChatSessionRepository(db),
		Users:        NewUserRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single transaction. Returning
// an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// NewBatch starts an atomic multi-document delete.
func (s *Store) NewBatch() *Batch {
	return &Batch{db: s.db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
