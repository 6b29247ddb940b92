package service

import (
	"context"
	"fmt"

	"studyboard/internal/feed"
	"studyboard/internal/model"
	"studyboard/internal/ordering"
	"studyboard/internal/quota"
	"studyboard/internal/repository"

	"github.com/google/uuid"
)

// ListBoards returns the owner's boards, bootstrapping the default board
// first so a fresh owner always sees one.
func (s *Lifecycle) ListBoards(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	if _, err := s.boot.EnsureDefaultBoard(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("ensure default board: %w", err)
	}
	boards, err := s.store.Boards.GetOwned(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// CreateBoard creates a board at the end of the owner's boards. A quota
// denial is returned as a value with a nil error.
func (s *Lifecycle) CreateBoard(ctx context.Context, ownerID uuid.UUID, title string) (*model.Board, *quota.Denial, error) {
	title, err := requireTitle(title)
	if err != nil {
		return nil, nil, err
	}

	usage, err := s.store.Usage.Ensure(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("get usage: %w", err)
	}
	decision := s.policy.Check(quota.KindBoard, usage.Role, usage.Snapshot(s.today()))
	if !decision.Allowed {
		return nil, decision.Denial, nil
	}
	limit := s.policy.Limit(usage.Role, quota.KindBoard)

	var (
		board *model.Board
		lost  bool
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Usage.IncrementBelow(ctx, ownerID, repository.BoardCount, limit)
		if err != nil {
			return fmt.Errorf("count board: %w", err)
		}
		if !ok {
			lost = true
			return nil
		}
		positions, err := tx.Boards.Positions(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("board positions: %w", err)
		}
		board = &model.Board{Title: title, OwnerID: ownerID, Position: ordering.NextPosition(positions)}
		if err := tx.Boards.Create(ctx, board); err != nil {
			return fmt.Errorf("create board: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lost {
		denial, err := s.denial(ctx, ownerID, quota.KindBoard)
		return nil, denial, err
	}

	s.publish(ctx, feed.BoardsTopic(ownerID))
	return board, nil, nil
}

func (s *Lifecycle) RenameBoard(ctx context.Context, ownerID, boardID uuid.UUID, title string) (*model.Board, error) {
	title, err := requireTitle(title)
	if err != nil {
		return nil, err
	}
	board, err := s.ownedBoard(ctx, s.store, ownerID, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Boards.Rename(ctx, board.ID, title); err != nil {
		return nil, fmt.Errorf("rename board: %w", err)
	}
	board.Title = title

	s.publish(ctx, feed.BoardsTopic(ownerID))
	return board, nil
}

// DeleteBoard deletes a board with all of its lists and tasks. The default
// board and an owner's last board cannot be deleted.
func (s *Lifecycle) DeleteBoard(ctx context.Context, ownerID, boardID uuid.UUID) error {
	board, err := s.ownedBoard(ctx, s.store, ownerID, boardID)
	if err != nil {
		return err
	}
	if board.IsDefault {
		return s.invariant(ownerID, "the default board cannot be deleted")
	}
	count, err := s.store.Boards.CountOwned(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("count boards: %w", err)
	}
	if count <= 1 {
		return s.invariant(ownerID, "the only board cannot be deleted")
	}

	if err := s.cascade.DeleteBoard(ctx, board); err != nil {
		return err
	}

	s.publish(ctx, feed.BoardsTopic(ownerID), feed.ListsTopic(boardID), feed.TasksTopic(boardID))
	return nil
}
