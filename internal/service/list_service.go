package service

import (
	"context"
	"fmt"

	"studyboard/internal/feed"
	"studyboard/internal/model"
	"studyboard/internal/ordering"
	"studyboard/internal/repository"

	"github.com/google/uuid"
)

// ListLists returns the board and its lists ordered by position.
func (s *Lifecycle) ListLists(ctx context.Context, ownerID, boardID uuid.UUID) (*model.Board, []model.List, error) {
	board, err := s.ownedBoard(ctx, s.store, ownerID, boardID)
	if err != nil {
		return nil, nil, err
	}
	lists, err := s.store.Lists.GetByBoardID(ctx, boardID)
	if err != nil {
		return nil, nil, fmt.Errorf("list lists: %w", err)
	}
	return board, lists, nil
}

// CreateList appends a list to a board.
func (s *Lifecycle) CreateList(ctx context.Context, ownerID, boardID uuid.UUID, title string) (*model.List, error) {
	title, err := requireTitle(title)
	if err != nil {
		return nil, err
	}

	var list *model.List
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		board, err := s.lockedBoard(ctx, tx, ownerID, boardID)
		if err != nil {
			return err
		}
		positions, err := tx.Lists.Positions(ctx, board.ID)
		if err != nil {
			return fmt.Errorf("list positions: %w", err)
		}
		list = &model.List{
			Title:    title,
			BoardID:  board.ID,
			OwnerID:  ownerID,
			Position: ordering.NextPosition(positions),
		}
		if err := tx.Lists.Create(ctx, list); err != nil {
			return fmt.Errorf("create list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, feed.ListsTopic(boardID))
	return list, nil
}

func (s *Lifecycle) RenameList(ctx context.Context, ownerID, listID uuid.UUID, title string) (*model.List, error) {
	title, err := requireTitle(title)
	if err != nil {
		return nil, err
	}
	list, err := s.ownedList(ctx, s.store, ownerID, listID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Lists.Rename(ctx, list.ID, title); err != nil {
		return nil, fmt.Errorf("rename list: %w", err)
	}
	list.Title = title

	s.publish(ctx, feed.ListsTopic(list.BoardID))
	return list, nil
}

// DeleteList deletes a list and all of its tasks.
func (s *Lifecycle) DeleteList(ctx context.Context, ownerID, listID uuid.UUID) error {
	list, err := s.ownedList(ctx, s.store, ownerID, listID)
	if err != nil {
		return err
	}
	if err := s.cascade.DeleteList(ctx, list); err != nil {
		return err
	}

	s.publish(ctx, feed.ListsTopic(list.BoardID), feed.TasksTopic(list.BoardID))
	return nil
}
