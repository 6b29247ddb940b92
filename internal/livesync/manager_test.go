package livesync_test

import (
	"context"
	"testing"
	"time"

	"studyboard/internal/livesync"
	"studyboard/internal/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OpenStreamsChanges(t *testing.T) {
	h := newHarness(t)
	m := livesync.NewManager(h.src, h.boot, logger.Discard())

	session, err := m.Open(context.Background(), h.owner)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())

	select {
	case change := <-session.Events():
		assert.Equal(t, livesync.CollectionBoards, change.Collection)
		assert.Len(t, change.View.Boards, 2)
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
	assert.Equal(t, h.a.ID, session.View().SelectedBoardID)
}

func TestManager_GetChecksOwner(t *testing.T) {
	h := newHarness(t)
	m := livesync.NewManager(h.src, h.boot, logger.Discard())
	session, err := m.Open(context.Background(), h.owner)
	require.NoError(t, err)

	_, ok := m.Get(session.ID, uuid.New())
	assert.False(t, ok)

	got, ok := m.Get(session.ID, h.owner)
	require.True(t, ok)
	require.NoError(t, got.Select(h.b.ID))
	assert.Equal(t, h.b.ID, got.View().SelectedBoardID)
}

func TestManager_CloseSignsOut(t *testing.T) {
	h := newHarness(t)
	m := livesync.NewManager(h.src, h.boot, logger.Discard())
	session, err := m.Open(context.Background(), h.owner)
	require.NoError(t, err)

	m.Close(session.ID)

	assert.Zero(t, m.Count())
	assert.Equal(t, livesync.StateIdle, session.View().State)
	assert.Equal(t, 0, h.src.openCount("lists"))
	_, ok := m.Get(session.ID, h.owner)
	assert.False(t, ok)

	select {
	case <-session.Done():
	default:
		t.Fatal("session not marked done")
	}
	m.Close(session.ID)
}

func TestManager_Shutdown(t *testing.T) {
	h := newHarness(t)
	m := livesync.NewManager(h.src, h.boot, logger.Discard())
	_, err := m.Open(context.Background(), h.owner)
	require.NoError(t, err)
	_, err = m.Open(context.Background(), h.owner)
	require.NoError(t, err)

	m.Shutdown()

	assert.Zero(t, m.Count())
	assert.Equal(t, 0, h.src.openCount("boards"))
}
