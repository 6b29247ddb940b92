// Package service implements the resource lifecycle of boards, lists, tasks
// and chat sessions on top of the repositories, enforcing plan quotas and
// announcing every mutation on the change feed.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studyboard/internal/apperr"
	"studyboard/internal/model"
	"studyboard/internal/quota"
	"studyboard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier announces that the documents behind topics changed.
type Notifier interface {
	Publish(ctx context.Context, topics ...string) error
}

type Lifecycle struct {
	store   *repository.Store
	policy  quota.Policy
	notify  Notifier
	log     logrus.FieldLogger
	now     func() time.Time
	boot    *Bootstrapper
	cascade *Cascade
}

type Option func(*Lifecycle)

// WithPolicy overrides quota.DefaultPolicy.
func WithPolicy(policy quota.Policy) Option {
	return func(s *Lifecycle) { s.policy = policy }
}

// WithClock overrides time.Now, which decides the prompt counter's day.
func WithClock(now func() time.Time) Option {
	return func(s *Lifecycle) { s.now = now }
}

func NewLifecycle(store *repository.Store, notify Notifier, log logrus.FieldLogger, opts ...Option) *Lifecycle {
	s := &Lifecycle{
		store:  store,
		policy: quota.DefaultPolicy,
		notify: notify,
		log:    log.WithField("component", "lifecycle"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.boot = NewBootstrapper(store, notify, log)
	s.cascade = NewCascade(store, log)
	return s
}

// Bootstrapper returns the default structure bootstrapper used by the facade.
func (s *Lifecycle) Bootstrapper() *Bootstrapper {
	return s.boot
}

func (s *Lifecycle) today() string {
	return quota.Today(s.now().UTC())
}

func (s *Lifecycle) publish(ctx context.Context, topics ...string) {
	publish(ctx, s.notify, s.log, topics...)
}

func publish(ctx context.Context, notify Notifier, log logrus.FieldLogger, topics ...string) {
	if notify == nil || len(topics) == 0 {
		return
	}
	if err := notify.Publish(ctx, topics...); err != nil {
		log.WithError(err).WithField("topics", topics).Warn("change feed publish failed")
	}
}

// invariant reports a request that a correct client never sends.
func (s *Lifecycle) invariant(ownerID uuid.UUID, message string) error {
	s.log.WithField("owner_id", ownerID).Error("invariant violation: " + message)
	return apperr.Invariant(message)
}

// denial describes the current usage after a conditional counter update
// lost a race with a concurrent creation.
func (s *Lifecycle) denial(ctx context.Context, ownerID uuid.UUID, kind quota.Kind) (*quota.Denial, error) {
	usage, err := s.store.Usage.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get usage: %w", err)
	}
	snap := usage.Snapshot(s.today())
	return &quota.Denial{
		Kind:    kind,
		Limit:   s.policy.Limit(usage.Role, kind),
		Current: snap.Count(kind),
		Plan:    usage.Role,
	}, nil
}

func requireTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title is required")
	}
	return title, nil
}

func (s *Lifecycle) ownedBoard(ctx context.Context, store *repository.Store, ownerID, boardID uuid.UUID) (*model.Board, error) {
	board, err := store.Boards.GetByID(ctx, boardID)
	if errors.Is(err, repository.ErrBoardNotFound) || (err == nil && board.OwnerID != ownerID) {
		return nil, apperr.NotFound("board not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return board, nil
}

// lockedBoard is ownedBoard for appends: it must run inside a transaction
// and holds the board row until it ends, so sibling positions stay unique.
func (s *Lifecycle) lockedBoard(ctx context.Context, tx *repository.Store, ownerID, boardID uuid.UUID) (*model.Board, error) {
	board, err := tx.Boards.GetForUpdate(ctx, boardID)
	if errors.Is(err, repository.ErrBoardNotFound) || (err == nil && board.OwnerID != ownerID) {
		return nil, apperr.NotFound("board not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lock board: %w", err)
	}
	return board, nil
}

// lockedList is ownedList for appends; see lockedBoard.
func (s *Lifecycle) lockedList(ctx context.Context, tx *repository.Store, ownerID, listID uuid.UUID) (*model.List, error) {
	list, err := tx.Lists.GetForUpdate(ctx, listID)
	if errors.Is(err, repository.ErrListNotFound) || (err == nil && list.OwnerID != ownerID) {
		return nil, apperr.NotFound("list not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lock list: %w", err)
	}
	return list, nil
}

func (s *Lifecycle) ownedList(ctx context.Context, store *repository.Store, ownerID, listID uuid.UUID) (*model.List, error) {
	list, err := store.Lists.GetByID(ctx, listID)
	if errors.Is(err, repository.ErrListNotFound) || (err == nil && list.OwnerID != ownerID) {
		return nil, apperr.NotFound("list not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return list, nil
}

func (s *Lifecycle) ownedTask(ctx context.Context, store *repository.Store, ownerID, taskID uuid.UUID) (*model.Task, error) {
	task, err := store.Tasks.GetByID(ctx, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) || (err == nil && task.OwnerID != ownerID) {
		return nil, apperr.NotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}
