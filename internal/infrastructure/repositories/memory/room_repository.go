package memory

import (
	"context"
	"sync"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
)

type MemoryRoomRepository struct {
	rooms  map[domain.RoomID]*domain.Room
	public map[domain.RoomID]struct{}
	mu     sync.RWMutex
}

func NewMemoryRoomRepository() ports.RoomRepository {
	return &MemoryRoomRepository{
		rooms:  make(map[domain.RoomID]*domain.Room),
		public: make(map[domain.RoomID]struct{}),
	}
}

func (r *MemoryRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return domain.ErrRoomExists
	}

	clone := *room
	r.rooms[room.ID] = &clone
	return nil
}

func (r *MemoryRoomRepository) GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	clone := *room
	return &clone, nil
}

func (r *MemoryRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; !exists {
		return domain.ErrRoomNotFound
	}

	clone := *room
	r.rooms[room.ID] = &clone
	return nil
}

func (r *MemoryRoomRepository) Delete(ctx context.Context, id domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; !exists {
		return domain.ErrRoomNotFound
	}

	delete(r.rooms, id)
	delete(r.public, id)
	return nil
}

func (r *MemoryRoomRepository) ListPublic(ctx context.Context) ([]*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []*domain.Room
	for id := range r.public {
		room, exists := r.rooms[id]
		if !exists {
			continue
		}
		clone := *room
		rooms = append(rooms, &clone)
	}

	return rooms, nil
}

func (r *MemoryRoomRepository) SetPublic(ctx context.Context, id domain.RoomID, public bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if public {
		r.public[id] = struct{}{}
	} else {
		delete(r.public, id)
	}
	return nil
}
