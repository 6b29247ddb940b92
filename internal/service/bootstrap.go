package service

import (
	"context"
	"errors"
	"fmt"

	"studyboard/internal/feed"
	"studyboard/internal/model"
	"studyboard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Bootstrapper guarantees every owner has a default board with at least one
// list.
type Bootstrapper struct {
	store  *repository.Store
	notify Notifier
	log    logrus.FieldLogger
}

func NewBootstrapper(store *repository.Store, notify Notifier, log logrus.FieldLogger) *Bootstrapper {
	return &Bootstrapper{store: store, notify: notify, log: log.WithField("component", "bootstrap")}
}

// EnsureDefaultBoard creates the owner's default board and its first list if
// they are missing and returns the default board id. It is safe to call
// concurrently: the board id is derived from the owner, so racing inserts
// collide and only the one that created the row counts it.
func (b *Bootstrapper) EnsureDefaultBoard(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	var (
		boardID      uuid.UUID
		boardCreated bool
		listCreated  bool
	)

	err := b.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Usage.Ensure(ctx, ownerID); err != nil {
			return err
		}

		board := &model.Board{
			ID:        model.DefaultBoardID(ownerID),
			Title:     model.DefaultBoardTitle,
			OwnerID:   ownerID,
			IsDefault: true,
			Position:  0,
		}
		created, err := tx.Boards.InsertIfAbsent(ctx, board)
		if err != nil {
			return fmt.Errorf("insert default board: %w", err)
		}
		boardID = board.ID
		boardCreated = created

		if created {
			if err := tx.Usage.Increment(ctx, ownerID, repository.BoardCount); err != nil {
				return fmt.Errorf("count default board: %w", err)
			}
		} else {
			existing, err := tx.Boards.FindDefault(ctx, ownerID)
			if err != nil {
				return fmt.Errorf("find default board: %w", err)
			}
			if existing == nil {
				return errors.New("default board vanished during bootstrap")
			}
			boardID = existing.ID
		}

		lists, err := tx.Lists.CountByBoard(ctx, boardID)
		if err != nil {
			return fmt.Errorf("count default lists: %w", err)
		}
		if lists > 0 {
			return nil
		}

		listCreated, err = tx.Lists.InsertIfAbsent(ctx, &model.List{
			ID:       model.DefaultListID(boardID),
			Title:    model.DefaultListTitle,
			BoardID:  boardID,
			OwnerID:  ownerID,
			Position: 0,
		})
		if err != nil {
			return fmt.Errorf("insert default list: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	if boardCreated || listCreated {
		b.log.WithFields(logrus.Fields{
			"owner_id":      ownerID,
			"board_id":      boardID,
			"board_created": boardCreated,
			"list_created":  listCreated,
		}).Info("default structure bootstrapped")
	}
	if boardCreated {
		publish(ctx, b.notify, b.log, feed.BoardsTopic(ownerID))
	}
	if listCreated {
		publish(ctx, b.notify, b.log, feed.ListsTopic(boardID))
	}
	return boardID, nil
}
