package ports

import (
	"context"

	"ourscreen/internal/core/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id domain.RoomID) error
	ListPublic(ctx context.Context) ([]*domain.Room, error)
	SetPublic(ctx context.Context, id domain.RoomID, public bool) error
}

type ParticipantRepository interface {
	Add(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error
	GetByKey(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) (*domain.Participant, error)
	Remove(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error
	List(ctx context.Context, roomID domain.RoomID) ([]*domain.Participant, error)
	Count(ctx context.Context, roomID domain.RoomID) (int, error)
	Update(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error
	RemoveAll(ctx context.Context, roomID domain.RoomID) error
}

type MessageRepository interface {
	Append(ctx context.Context, roomID domain.RoomID, msg *domain.Message) error
	List(ctx context.Context, roomID domain.RoomID, limit int) ([]*domain.Message, error)
	RemoveAll(ctx context.Context, roomID domain.RoomID) error
}

type MediaStateRepository interface {
	Get(ctx context.Context, roomID domain.RoomID) (*domain.MediaState, error)
	Set(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) error
	Remove(ctx context.Context, roomID domain.RoomID) error
}
