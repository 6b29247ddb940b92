package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type batchDelete struct {
	model any
	ids   []uuid.UUID
}

// Batch collects deletions and commits them in one transaction: either every
// row is removed or none is.
type Batch struct {
	db  *gorm.DB
	ops []batchDelete
}

// Delete queues removal of the rows of model's table with the given ids.
func (b *Batch) Delete(model any, ids ...uuid.UUID) *Batch {
	if len(ids) > 0 {
		b.ops = append(b.ops, batchDelete{model: model, ids: ids})
	}
	return b
}

// Size is the number of rows queued.
func (b *Batch) Size() int {
	n := 0
	for _, op := range b.ops {
		n += len(op.ids)
	}
	return n
}

func (b *Batch) Commit(ctx context.Context) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range b.ops {
			if err := tx.Where("id IN ?", op.ids).Delete(op.model).Error; err != nil {
				return fmt.Errorf("batch delete: %w", err)
			}
		}
		return nil
	})
}
