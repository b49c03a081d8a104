package distributed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ourscreen/internal/core/domain"
)

// LocalEventBus fans events out inside one process. It backs deployments
// without Redis, where the API and the sync gateway run as one unit.
type LocalEventBus struct {
	mu       sync.RWMutex
	handlers []func(*Event) error
	closed   bool
}

func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{}
}

// Subscribe registers a handler and blocks until the context is done,
// mirroring the Redis bus contract.
func (b *LocalEventBus) Subscribe(ctx context.Context, handler func(*Event) error) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

func (b *LocalEventBus) Publish(ctx context.Context, event *Event) error {
	event.Timestamp = time.Now()

	b.mu.RLock()
	handlers := make([]func(*Event) error, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		// Handler errors are the subscriber's concern, not the publisher's
		_ = handler(event)
	}
	return nil
}

func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}

func (b *LocalEventBus) PublishRoomUpdated(ctx context.Context, room *domain.Room) error {
	payload, _ := json.Marshal(room)
	return b.Publish(ctx, &Event{Type: EventRoomUpdated, RoomID: room.ID, Payload: payload})
}

func (b *LocalEventBus) PublishRoomDeleted(ctx context.Context, roomID domain.RoomID) error {
	return b.Publish(ctx, &Event{Type: EventRoomDeleted, RoomID: roomID})
}

func (b *LocalEventBus) PublishParticipantJoined(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error {
	payload, _ := json.Marshal(p)
	return b.Publish(ctx, &Event{Type: EventParticipantJoined, RoomID: roomID, Payload: payload})
}

func (b *LocalEventBus) PublishParticipantLeft(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error {
	payload, _ := json.Marshal(map[string]interface{}{"key": key})
	return b.Publish(ctx, &Event{Type: EventParticipantLeft, RoomID: roomID, Payload: payload})
}

func (b *LocalEventBus) PublishMessageCreated(ctx context.Context, roomID domain.RoomID, msg *domain.Message) error {
	payload, _ := json.Marshal(msg)
	return b.Publish(ctx, &Event{Type: EventMessageCreated, RoomID: roomID, Payload: payload})
}

func (b *LocalEventBus) PublishMediaUpdated(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) error {
	payload, _ := json.Marshal(state)
	return b.Publish(ctx, &Event{Type: EventMediaUpdated, RoomID: roomID, Payload: payload})
}
