package service

import (
	"context"

	"studyboard/internal/apperr"
	"studyboard/internal/model"
	"studyboard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Cascade deletes a board or list together with everything beneath it.
// Children are read first; the deletion itself is one atomic batch.
type Cascade struct {
	store *repository.Store
	log   logrus.FieldLogger
}

func NewCascade(store *repository.Store, log logrus.FieldLogger) *Cascade {
	return &Cascade{store: store, log: log.WithField("component", "cascade")}
}

// DeleteBoard removes the board, its lists and its tasks, then releases the
// owner's board quota slot. The counter update is not part of the batch; a
// failure there is logged and left to the usage reconciler.
func (c *Cascade) DeleteBoard(ctx context.Context, board *model.Board) error {
	lists, err := c.store.Lists.GetByBoardID(ctx, board.ID)
	if err != nil {
		return apperr.ChildEnumeration(err)
	}
	tasks, err := c.store.Tasks.GetByBoardID(ctx, board.ID)
	if err != nil {
		return apperr.ChildEnumeration(err)
	}

	batch := c.store.NewBatch().
		Delete(&model.Task{}, taskIDs(tasks)...).
		Delete(&model.List{}, listIDs(lists)...).
		Delete(&model.Board{}, board.ID)
	size := batch.Size()
	if err := batch.Commit(ctx); err != nil {
		return apperr.BatchWrite(err)
	}

	log := c.log.WithFields(logrus.Fields{"board_id": board.ID, "owner_id": board.OwnerID, "rows": size})
	if err := c.store.Usage.Decrement(ctx, board.OwnerID, repository.BoardCount); err != nil {
		log.WithError(err).Warn("board deleted but board count not released")
	}
	log.Info("board deleted")
	return nil
}

// DeleteList removes the list and its tasks. Quotas are not affected.
func (c *Cascade) DeleteList(ctx context.Context, list *model.List) error {
	tasks, err := c.store.Tasks.GetByListID(ctx, list.ID)
	if err != nil {
		return apperr.ChildEnumeration(err)
	}

	batch := c.store.NewBatch().
		Delete(&model.Task{}, taskIDs(tasks)...).
		Delete(&model.List{}, list.ID)
	size := batch.Size()
	if err := batch.Commit(ctx); err != nil {
		return apperr.BatchWrite(err)
	}

	c.log.WithFields(logrus.Fields{"list_id": list.ID, "board_id": list.BoardID, "rows": size}).Info("list deleted")
	return nil
}

func taskIDs(tasks []model.Task) []uuid.UUID {
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func listIDs(lists []model.List) []uuid.UUID {
	ids := make([]uuid.UUID, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	return ids
}
