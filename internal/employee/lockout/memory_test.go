package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryFailureWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewInMemory(WithClock(func() time.Time { return now }))

	count, err := s.RecordFailure(ctx, "EMP001", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = s.RecordFailure(ctx, "EMP001", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The window is anchored to the first failure.
	now = now.Add(16 * time.Minute)
	count, err = s.RecordFailure(ctx, "EMP001", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInMemoryLockExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewInMemory(WithClock(func() time.Time { return now }))

	require.NoError(t, s.Lock(ctx, "EMP001", 15*time.Minute))

	locked, remaining, err := s.IsLocked(ctx, "EMP001")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 15*time.Minute, remaining)

	now = now.Add(15*time.Minute + time.Second)
	locked, _, err = s.IsLocked(ctx, "EMP001")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestInMemoryClear(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	_, err := s.RecordFailure(ctx, "EMP001", 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Lock(ctx, "EMP001", 15*time.Minute))

	require.NoError(t, s.Clear(ctx, "EMP001"))

	locked, _, err := s.IsLocked(ctx, "EMP001")
	require.NoError(t, err)
	assert.False(t, locked)

	count, err := s.RecordFailure(ctx, "EMP001", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
