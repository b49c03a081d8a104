package distributed

import (
	"context"
	"testing"
	"time"

	"ourscreen/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEventBus_DeliversToSubscriber(t *testing.T) {
	bus := NewLocalEventBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *Event, 1)
	go func() {
		_ = bus.Subscribe(ctx, func(e *Event) error {
			received <- e
			return nil
		})
	}()

	// Give the subscriber goroutine time to register
	time.Sleep(10 * time.Millisecond)

	room := &domain.Room{ID: "movie-night-a3f9k", Name: "Movie Night"}
	require.NoError(t, bus.PublishRoomUpdated(context.Background(), room))

	select {
	case e := <-received:
		assert.Equal(t, EventRoomUpdated, e.Type)
		assert.Equal(t, room.ID, e.RoomID)
		assert.NotZero(t, e.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestLocalEventBus_SubscribeBlocksUntilContextDone(t *testing.T) {
	bus := NewLocalEventBus()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(ctx, func(e *Event) error { return nil })
	}()

	select {
	case <-done:
		t.Fatal("Subscribe returned before context was cancelled")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Subscribe did not return after cancellation")
	}
}

func TestLocalEventBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewLocalEventBus()

	err := bus.PublishRoomDeleted(context.Background(), "gone-room")
	assert.NoError(t, err)
}
