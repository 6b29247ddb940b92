package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studyboard/internal/apperr"
	"studyboard/internal/feed"
	"studyboard/internal/model"
	"studyboard/internal/ordering"
	"studyboard/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Priority    model.Priority
	DueDate     *time.Time
	Attachments []string
}

// TaskUpdate carries the fields of an edit form. Nil pointers and empty
// attachments leave the stored value untouched, except Completed, which
// is written as false when absent.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *model.Priority
	Completed   *bool
	DueDate     *time.Time
	Attachments []string
	ListID      *uuid.UUID
}

func (s *Lifecycle) ListTasks(ctx context.Context, ownerID, boardID uuid.UUID) ([]model.Task, error) {
	if _, err := s.ownedBoard(ctx, s.store, ownerID, boardID); err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks.GetByBoardID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask appends a task to a list.
func (s *Lifecycle) CreateTask(ctx context.Context, ownerID, listID uuid.UUID, in TaskInput) (*model.Task, error) {
	title, err := requireTitle(in.Title)
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validation("priority must be low, medium or high")
	}

	var task *model.Task
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		list, err := s.lockedList(ctx, tx, ownerID, listID)
		if err != nil {
			return err
		}
		positions, err := tx.Tasks.Positions(ctx, list.ID)
		if err != nil {
			return fmt.Errorf("task positions: %w", err)
		}
		task = &model.Task{
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			ListID:      list.ID,
			BoardID:     list.BoardID,
			OwnerID:     ownerID,
			Priority:    priority,
			DueDate:     in.DueDate,
			Attachments: attachments(in.Attachments),
			Position:    ordering.NextPosition(positions),
		}
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, feed.TasksTopic(task.BoardID))
	return task, nil
}

// UpdateTask applies an edit. A changed ListID moves the task to the end of
// that list, on whichever board it belongs to.
func (s *Lifecycle) UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, in TaskUpdate) (*model.Task, error) {
	fields := map[string]any{}

	if in.Title != nil {
		title, err := requireTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperr.Validation("priority must be low, medium or high")
		}
		fields["priority"] = *in.Priority
	}
	completed := false
	if in.Completed != nil {
		completed = *in.Completed
	}
	fields["completed"] = completed
	if in.DueDate != nil {
		fields["due_date"] = *in.DueDate
	}
	if a := attachments(in.Attachments); a != nil {
		fields["attachments"] = a
	}

	var before, after *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		before, err = s.ownedTask(ctx, tx, ownerID, taskID)
		if err != nil {
			return err
		}
		if in.ListID != nil && *in.ListID != before.ListID {
			if err := s.relocate(ctx, tx, ownerID, before, *in.ListID, fields); err != nil {
				return err
			}
		}
		if err := tx.Tasks.Update(ctx, taskID, fields); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		after, err = tx.Tasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishTaskMove(ctx, before, after)
	return after, nil
}

// MoveTask moves a task to the end of another list.
func (s *Lifecycle) MoveTask(ctx context.Context, ownerID, taskID, listID uuid.UUID) (*model.Task, error) {
	var before, after *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		before, err = s.ownedTask(ctx, tx, ownerID, taskID)
		if err != nil {
			return err
		}
		if before.ListID == listID {
			after = before
			return nil
		}
		fields := map[string]any{}
		if err := s.relocate(ctx, tx, ownerID, before, listID, fields); err != nil {
			return err
		}
		if err := tx.Tasks.Update(ctx, taskID, fields); err != nil {
			return fmt.Errorf("move task: %w", err)
		}
		after, err = tx.Tasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishTaskMove(ctx, before, after)
	return after, nil
}

// relocate adds the list, board and position changes of a move to fields.
func (s *Lifecycle) relocate(ctx context.Context, tx *repository.Store, ownerID uuid.UUID, task *model.Task, listID uuid.UUID, fields map[string]any) error {
	target, err := s.lockedList(ctx, tx, ownerID, listID)
	if err != nil {
		return err
	}
	positions, err := tx.Tasks.Positions(ctx, target.ID)
	if err != nil {
		return fmt.Errorf("task positions: %w", err)
	}
	fields["list_id"] = target.ID
	fields["board_id"] = target.BoardID
	fields["position"] = ordering.NextPosition(positions)
	return nil
}

func (s *Lifecycle) publishTaskMove(ctx context.Context, before, after *model.Task) {
	if before.BoardID != after.BoardID {
		s.publish(ctx, feed.TasksTopic(before.BoardID), feed.TasksTopic(after.BoardID))
		return
	}
	s.publish(ctx, feed.TasksTopic(after.BoardID))
}

func (s *Lifecycle) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	task, err := s.ownedTask(ctx, s.store, ownerID, taskID)
	if err != nil {
		return err
	}
	if err := s.store.Tasks.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.publish(ctx, feed.TasksTopic(task.BoardID))
	return nil
}

// ToggleTaskCompletion flips the completed flag in place.
func (s *Lifecycle) ToggleTaskCompletion(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.ownedTask(ctx, s.store, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Tasks.ToggleCompleted(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	task, err = s.store.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	s.publish(ctx, feed.TasksTopic(task.BoardID))
	return task, nil
}

// attachments drops blank entries and returns nil when nothing remains.
func attachments(in []string) datatypes.JSONSlice[string] {
	var out datatypes.JSONSlice[string]
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
