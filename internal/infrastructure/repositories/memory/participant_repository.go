package memory

import (
	"context"
	"sync"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"
)

type MemoryParticipantRepository struct {
	byRoom map[domain.RoomID]map[domain.ParticipantKey]*domain.Participant
	mu     sync.RWMutex
}

func NewMemoryParticipantRepository() ports.ParticipantRepository {
	return &MemoryParticipantRepository{
		byRoom: make(map[domain.RoomID]map[domain.ParticipantKey]*domain.Participant),
	}
}

func (r *MemoryParticipantRepository) Add(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.byRoom[roomID]
	if !exists {
		room = make(map[domain.ParticipantKey]*domain.Participant)
		r.byRoom[roomID] = room
	}

	clone := *p
	room[p.Key] = &clone
	return nil
}

func (r *MemoryParticipantRepository) GetByKey(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) (*domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.byRoom[roomID][key]
	if !exists {
		return nil, domain.ErrParticipantNotFound
	}

	clone := *p
	return &clone, nil
}

func (r *MemoryParticipantRepository) Remove(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.byRoom[roomID]
	if !exists {
		return domain.ErrParticipantNotFound
	}
	if _, exists := room[key]; !exists {
		return domain.ErrParticipantNotFound
	}

	delete(room, key)
	if len(room) == 0 {
		delete(r.byRoom, roomID)
	}
	return nil
}

func (r *MemoryParticipantRepository) List(ctx context.Context, roomID domain.RoomID) ([]*domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var participants []*domain.Participant
	for _, p := range r.byRoom[roomID] {
		clone := *p
		participants = append(participants, &clone)
	}

	return participants, nil
}

func (r *MemoryParticipantRepository) Count(ctx context.Context, roomID domain.RoomID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byRoom[roomID]), nil
}

func (r *MemoryParticipantRepository) Update(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.byRoom[roomID]
	if !exists {
		return domain.ErrParticipantNotFound
	}
	if _, exists := room[p.Key]; !exists {
		return domain.ErrParticipantNotFound
	}

	clone := *p
	room[p.Key] = &clone
	return nil
}

func (r *MemoryParticipantRepository) RemoveAll(ctx context.Context, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byRoom, roomID)
	return nil
}
