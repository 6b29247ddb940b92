// Package feed turns Redis pub/sub notifications into live query
// subscriptions. Writers publish the topics they touched; each watcher
// re-runs its query on notification and delivers the complete result set.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	boardsPrefix = "feed:boards:"
	listsPrefix  = "feed:lists:"
	tasksPrefix  = "feed:tasks:"
)

// BoardsTopic carries changes to the boards owned by ownerID.
func BoardsTopic(ownerID uuid.UUID) string { return boardsPrefix + ownerID.String() }

// ListsTopic carries changes to the lists of boardID.
func ListsTopic(boardID uuid.UUID) string { return listsPrefix + boardID.String() }

// TasksTopic carries changes to the tasks of boardID.
func TasksTopic(boardID uuid.UUID) string { return tasksPrefix + boardID.String() }

type Hub struct {
	rdb *redis.Client
	log logrus.FieldLogger
}

func NewHub(rdb *redis.Client, log logrus.FieldLogger) *Hub {
	return &Hub{rdb: rdb, log: log}
}

// Publish notifies the watchers of every topic. All topics are attempted
// even when one fails.
func (h *Hub) Publish(ctx context.Context, topics ...string) error {
	var errs []error
	for _, topic := range topics {
		if err := h.rdb.Publish(ctx, topic, "changed").Err(); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

// Subscription is one live query. Close stops it; no delivery happens after
// Close returns.
type Subscription struct {
	topic  string
	ps     *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Topic() string {
	return s.topic
}

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
		<-s.done
	})
	return err
}

// Watch subscribes to topic, delivers the result of query once the
// subscription is confirmed, and again after every notification. Bursts of
// notifications that arrive during a query are coalesced into one re-query.
func Watch[T any](
	ctx context.Context,
	h *Hub,
	topic string,
	query func(ctx context.Context) ([]T, error),
	deliver func(items []T),
) (*Subscription, error) {
	ps := h.rdb.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{topic: topic, ps: ps, cancel: cancel, done: make(chan struct{})}
	log := h.log.WithField("topic", topic)

	refresh := func() {
		items, err := query(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.WithError(err).Warn("feed query failed")
			return
		}
		deliver(items)
	}

	ch := ps.Channel()
	go func() {
		defer close(sub.done)
		refresh()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
			drain:
				for {
					select {
					case <-ch:
					default:
						break drain
					}
				}
				refresh()
			}
		}
	}()

	return sub, nil
}
