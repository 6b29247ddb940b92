package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"studyboard/internal/logger"
	"studyboard/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Every(t *testing.T) {
	s := scheduler.New(logger.Discard())

	var runs atomic.Int32
	_, err := s.Every("count", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := scheduler.New(logger.Discard())

	_, err := s.Every("bad", 0, func(context.Context) error { return nil })

	assert.Error(t, err)
}
