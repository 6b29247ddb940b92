package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_BurstThenDeny(t *testing.T) {
	k := New(1, 3, 0)
	defer k.Stop()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, k.Allow("alice"), "request %d", i+1)
	}
	assert.False(t, k.Allow("alice"))
	assert.True(t, k.Allow("bob"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, k.Allow("alice"))
}

func TestKeyed_Sweep(t *testing.T) {
	k := New(1, 1, time.Minute)
	defer k.Stop()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return now }

	k.Allow("alice")
	now = now.Add(30 * time.Second)
	k.Allow("bob")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, k.Sweep())
	assert.Equal(t, 1, k.Len())
}
