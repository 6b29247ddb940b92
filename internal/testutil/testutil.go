// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"studyboard/internal/model"
	"studyboard/internal/quota"
	"studyboard/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := repository.OpenSQLite("file::memory:", &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewStore wraps NewDB in a repository.Store.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	return repository.NewStore(NewDB(t))
}

// NewRedis starts a miniredis server and returns a client connected to it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, srv
}

// SeedUser creates a user with a usage counter row on the given plan.
func SeedUser(t testing.TB, store *repository.Store, plan quota.Plan) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	user := &model.User{
		Email:          uuid.NewString() + "@example.com",
		HashedPassword: "x",
		Name:           "Student",
	}
	require.NoError(t, store.Users.Create(ctx, user))

	_, err := store.Usage.Ensure(ctx, user.ID)
	require.NoError(t, err)
	if plan != quota.PlanFree {
		require.NoError(t, store.Usage.SetPlan(ctx, user.ID, plan))
	}
	return user.ID
}

// SeedBoard inserts a board directly, bypassing quota accounting.
func SeedBoard(t testing.TB, store *repository.Store, ownerID uuid.UUID, title string, position int) *model.Board {
	t.Helper()
	board := &model.Board{Title: title, OwnerID: ownerID, Position: position}
	require.NoError(t, store.Boards.Create(context.Background(), board))
	return board
}

// SeedList inserts a list directly.
func SeedList(t testing.TB, store *repository.Store, board *model.Board, title string, position int) *model.List {
	t.Helper()
	list := &model.List{Title: title, BoardID: board.ID, OwnerID: board.OwnerID, Position: position}
	require.NoError(t, store.Lists.Create(context.Background(), list))
	return list
}

// SeedTask inserts a task directly.
func SeedTask(t testing.TB, store *repository.Store, list *model.List, title string, position int) *model.Task {
	t.Helper()
	task := &model.Task{
		Title:    title,
		ListID:   list.ID,
		BoardID:  list.BoardID,
		OwnerID:  list.OwnerID,
		Priority: model.PriorityMedium,
		Position: position,
	}
	require.NoError(t, store.Tasks.Create(context.Background(), task))
	return task
}
