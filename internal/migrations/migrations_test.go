package migrations_test

import (
	"io"
	"testing"

	"studyboard/internal/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_PairsUpAndDown(t *testing.T) {
	src, err := migrations.Source()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	up, _, err := src.ReadUp(version)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	up.Close()
	assert.Contains(t, string(body), "boards_one_default_per_owner")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS usage_counters")

	down, _, err := src.ReadDown(version)
	require.NoError(t, err)
	down.Close()
}

func TestDown_RejectsNonPositiveSteps(t *testing.T) {
	err := migrations.Down("postgres://unused", 0, nil)
	assert.Error(t, err)
}
