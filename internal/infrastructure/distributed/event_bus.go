package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"ourscreen/internal/core/domain"
	"ourscreen/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventType represents the type of event
type EventType string

const (
	EventRoomUpdated       EventType = "room.updated"
	EventRoomDeleted       EventType = "room.deleted"
	EventParticipantJoined EventType = "participant.joined"
	EventParticipantLeft   EventType = "participant.left"
	EventMessageCreated    EventType = "message.created"
	EventMediaUpdated      EventType = "media.updated"
)

// Event represents a room event carried between the API server and the
// sync gateway.
type Event struct {
	Type       EventType       `json:"type"`
	InstanceID string          `json:"instance_id"`
	Timestamp  time.Time       `json:"timestamp"`
	RoomID     domain.RoomID   `json:"room_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// EventBus provides event publishing and subscription over Redis pub/sub
type EventBus struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger
	channels   []string

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewEventBus creates a new event bus
func NewEventBus(
	client *redis.Client,
	instanceID string,
	logger *zap.SugaredLogger,
) *EventBus {
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
		channels:   []string{"ourscreen:events"},
	}
}

// Publish publishes an event to the event bus
func (eb *EventBus) Publish(ctx context.Context, event *Event) error {
	event.InstanceID = eb.instanceID
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := eb.channels[0]
	if err := eb.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	eb.logger.Debugw("published event",
		"type", event.Type,
		"room_id", event.RoomID,
	)

	return nil
}

// Subscribe subscribes to events and calls handler for each event.
// Events from this instance are NOT skipped: the sync gateway must fan
// out its own mutations to its local connections too. Subscribe may be
// called again after it returns; the gateway's reconnect loop relies on
// that.
func (eb *EventBus) Subscribe(ctx context.Context, handler func(*Event) error) error {
	eb.mu.Lock()
	if eb.pubsub != nil {
		eb.mu.Unlock()
		return fmt.Errorf("already subscribed")
	}
	pubsub := eb.client.Subscribe(ctx, eb.channels...)
	eb.pubsub = pubsub
	eb.mu.Unlock()

	defer func() {
		pubsub.Close()
		eb.mu.Lock()
		eb.pubsub = nil
		eb.mu.Unlock()
	}()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription stream closed: %w", io.EOF)
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				eb.logger.Warnw("failed to unmarshal event",
					"error", err,
					"payload", utils.TruncateString(msg.Payload, 256),
				)
				continue
			}

			if err := handler(&event); err != nil {
				eb.logger.Warnw("error handling event",
					"type", event.Type,
					"error", err,
				)
			}
		}
	}
}

// Close closes the event bus
func (eb *EventBus) Close() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.pubsub != nil {
		return eb.pubsub.Close()
	}
	return nil
}

// PublishRoomUpdated publishes a room updated event
func (eb *EventBus) PublishRoomUpdated(ctx context.Context, room *domain.Room) error {
	payload, _ := json.Marshal(room)

	return eb.Publish(ctx, &Event{
		Type:    EventRoomUpdated,
		RoomID:  room.ID,
		Payload: payload,
	})
}

// PublishRoomDeleted publishes a room deleted event
func (eb *EventBus) PublishRoomDeleted(ctx context.Context, roomID domain.RoomID) error {
	return eb.Publish(ctx, &Event{
		Type:   EventRoomDeleted,
		RoomID: roomID,
	})
}

// PublishParticipantJoined publishes a participant joined event
func (eb *EventBus) PublishParticipantJoined(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error {
	payload, _ := json.Marshal(p)

	return eb.Publish(ctx, &Event{
		Type:    EventParticipantJoined,
		RoomID:  roomID,
		Payload: payload,
	})
}

// PublishParticipantLeft publishes a participant left event
func (eb *EventBus) PublishParticipantLeft(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"key": key,
	})

	return eb.Publish(ctx, &Event{
		Type:    EventParticipantLeft,
		RoomID:  roomID,
		Payload: payload,
	})
}

// PublishMessageCreated publishes a message created event
func (eb *EventBus) PublishMessageCreated(ctx context.Context, roomID domain.RoomID, msg *domain.Message) error {
	payload, _ := json.Marshal(msg)

	return eb.Publish(ctx, &Event{
		Type:    EventMessageCreated,
		RoomID:  roomID,
		Payload: payload,
	})
}

// PublishMediaUpdated publishes a media state updated event
func (eb *EventBus) PublishMediaUpdated(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) error {
	payload, _ := json.Marshal(state)

	return eb.Publish(ctx, &Event{
		Type:    EventMediaUpdated,
		RoomID:  roomID,
		Payload: payload,
	})
}
