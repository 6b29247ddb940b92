package feed

import (
	"context"
	"errors"
	"io"

	"studyboard/internal/model"
	"studyboard/internal/repository"

	"github.com/google/uuid"
)

// Source serves the live queries of a sync session from the store.
type Source struct {
	hub   *Hub
	store *repository.Store
}

func NewSource(hub *Hub, store *repository.Store) *Source {
	return &Source{hub: hub, store: store}
}

func (s *Source) WatchBoards(ctx context.Context, ownerID uuid.UUID, deliver func([]model.Board)) (io.Closer, error) {
	sub, err := Watch(ctx, s.hub, BoardsTopic(ownerID), func(ctx context.Context) ([]model.Board, error) {
		return s.store.Boards.GetOwned(ctx, ownerID)
	}, deliver)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Source) WatchLists(ctx context.Context, boardID uuid.UUID, deliver func([]model.List)) (io.Closer, error) {
	sub, err := Watch(ctx, s.hub, ListsTopic(boardID), func(ctx context.Context) ([]model.List, error) {
		return s.store.Lists.GetByBoardID(ctx, boardID)
	}, deliver)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Source) WatchTasks(ctx context.Context, boardID uuid.UUID, deliver func([]model.Task)) (io.Closer, error) {
	sub, err := Watch(ctx, s.hub, TasksTopic(boardID), func(ctx context.Context) ([]model.Task, error) {
		return s.store.Tasks.GetByBoardID(ctx, boardID)
	}, deliver)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Source) OwnsBoard(ctx context.Context, ownerID, boardID uuid.UUID) (bool, error) {
	board, err := s.store.Boards.GetByID(ctx, boardID)
	if errors.Is(err, repository.ErrBoardNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return board.OwnerID == ownerID, nil
}
