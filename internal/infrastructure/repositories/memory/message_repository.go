package memory

import (
	"context"
	"sync"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
)

// maxStoredMessages bounds per-room history regardless of the read limit.
const maxStoredMessages = 1000

type MemoryMessageRepository struct {
	byRoom map[domain.RoomID][]*domain.Message
	mu     sync.RWMutex
}

func NewMemoryMessageRepository() ports.MessageRepository {
	return &MemoryMessageRepository{
		byRoom: make(map[domain.RoomID][]*domain.Message),
	}
}

func (r *MemoryMessageRepository) Append(ctx context.Context, roomID domain.RoomID, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *msg
	messages := append(r.byRoom[roomID], &clone)
	if len(messages) > maxStoredMessages {
		messages = messages[len(messages)-maxStoredMessages:]
	}
	r.byRoom[roomID] = messages
	return nil
}

func (r *MemoryMessageRepository) List(ctx context.Context, roomID domain.RoomID, limit int) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := r.byRoom[roomID]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	out := make([]*domain.Message, len(messages))
	for i, msg := range messages {
		clone := *msg
		out[i] = &clone
	}
	return out, nil
}

func (r *MemoryMessageRepository) RemoveAll(ctx context.Context, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byRoom, roomID)
	return nil
}
