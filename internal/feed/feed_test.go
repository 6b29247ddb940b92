package feed_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"studyboard/internal/feed"
	"studyboard/internal/logger"
	"studyboard/internal/model"
	"studyboard/internal/quota"
	"studyboard/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder[T any] struct {
	mu    sync.Mutex
	calls [][]T
}

func (r *recorder[T]) deliver(items []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, items)
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder[T]) last() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func TestTopics(t *testing.T) {
	id := uuid.MustParse("6f1c1f0e-6a43-4e0b-9d4c-0b4a5f0d2a11")

	assert.Equal(t, "feed:boards:"+id.String(), feed.BoardsTopic(id))
	assert.Equal(t, "feed:lists:"+id.String(), feed.ListsTopic(id))
	assert.Equal(t, "feed:tasks:"+id.String(), feed.TasksTopic(id))
}

func TestWatch_InitialSnapshotThenRequery(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	hub := feed.NewHub(rdb, logger.Discard())
	ctx := context.Background()

	var version atomic.Int32
	rec := &recorder[int32]{}
	sub, err := feed.Watch(ctx, hub, "feed:test", func(context.Context) ([]int32, error) {
		return []int32{version.Load()}, nil
	}, rec.deliver)
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int32{0}, rec.last())

	version.Store(1)
	require.NoError(t, hub.Publish(ctx, "feed:test"))

	require.Eventually(t, func() bool {
		last := rec.last()
		return len(last) == 1 && last[0] == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWatch_NoDeliveryAfterClose(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	hub := feed.NewHub(rdb, logger.Discard())
	ctx := context.Background()

	rec := &recorder[string]{}
	sub, err := feed.Watch(ctx, hub, "feed:test", func(context.Context) ([]string, error) {
		return []string{"x"}, nil
	}, rec.deliver)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	require.NoError(t, hub.Publish(ctx, "feed:test"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestWatch_OtherTopicsIgnored(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	hub := feed.NewHub(rdb, logger.Discard())
	ctx := context.Background()

	rec := &recorder[string]{}
	sub, err := feed.Watch(ctx, hub, feed.ListsTopic(uuid.New()), func(context.Context) ([]string, error) {
		return nil, nil
	}, rec.deliver)
	require.NoError(t, err)
	defer sub.Close()
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, feed.ListsTopic(uuid.New())))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestSource_WatchBoards(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	store := testutil.NewStore(t)
	hub := feed.NewHub(rdb, logger.Discard())
	src := feed.NewSource(hub, store)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, quota.PlanFree)

	rec := &recorder[model.Board]{}
	sub, err := src.WatchBoards(ctx, owner, rec.deliver)
	require.NoError(t, err)
	defer sub.Close()
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Empty(t, rec.last())

	board := testutil.SeedBoard(t, store, owner, "Physics", 0)
	require.NoError(t, hub.Publish(ctx, feed.BoardsTopic(owner)))

	require.Eventually(t, func() bool { return len(rec.last()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, board.ID, rec.last()[0].ID)
}

func TestSource_OwnsBoard(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	store := testutil.NewStore(t)
	src := feed.NewSource(feed.NewHub(rdb, logger.Discard()), store)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, quota.PlanFree)
	other := testutil.SeedUser(t, store, quota.PlanFree)
	board := testutil.SeedBoard(t, store, owner, "Physics", 0)

	owned, err := src.OwnsBoard(ctx, owner, board.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = src.OwnsBoard(ctx, other, board.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	owned, err = src.OwnsBoard(ctx, owner, uuid.New())
	require.NoError(t, err)
	assert.False(t, owned)
}
