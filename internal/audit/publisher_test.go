package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherSyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), Event{
		UserID: "u1",
		Action: ActionEnrollmentCreated,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionEnrollmentCreated, events[0].Action)
	assert.NotZero(t, events[0].ID)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestPublisherAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for i := 0; i < 10; i++ {
		err := pub.Emit(context.Background(), Event{
			UserID: "u1",
			Action: ActionVerifyMatched,
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := pub.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestPublisherStampsClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithPublisherClock(func() time.Time { return now }))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), Event{UserID: "u1", Action: ActionVerifyRejected}))

	events, err := pub.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].CreatedAt)
}
