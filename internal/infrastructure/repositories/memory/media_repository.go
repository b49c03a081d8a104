package memory

import (
	"context"
	"sync"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
)

type MemoryMediaStateRepository struct {
	byRoom map[domain.RoomID]*domain.MediaState
	mu     sync.RWMutex
}

func NewMemoryMediaStateRepository() ports.MediaStateRepository {
	return &MemoryMediaStateRepository{
		byRoom: make(map[domain.RoomID]*domain.MediaState),
	}
}

func (r *MemoryMediaStateRepository) Get(ctx context.Context, roomID domain.RoomID) (*domain.MediaState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.byRoom[roomID]
	if !exists {
		return nil, domain.ErrMediaStateNotFound
	}

	clone := *state
	return &clone, nil
}

func (r *MemoryMediaStateRepository) Set(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *state
	r.byRoom[roomID] = &clone
	return nil
}

func (r *MemoryMediaStateRepository) Remove(ctx context.Context, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byRoom, roomID)
	return nil
}
