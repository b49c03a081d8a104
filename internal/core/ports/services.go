package ports

import (
	"context"

	"ourscreen/internal/core/domain"
)

// CreateRoomParams carries the inputs of RoomService.CreateRoom.
type CreateRoomParams struct {
	Name       string
	Visibility domain.Visibility
	Quick      bool
}

// JoinParams carries the inputs of RoomService.Join.
type JoinParams struct {
	ID        string
	Name      string
	AvatarURL string
	Hint      string
}

type RoomService interface {
	CreateRoom(ctx context.Context, params CreateRoomParams) (*domain.Room, error)
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	ListPublicRooms(ctx context.Context) ([]*domain.Room, error)
	SetVisibility(ctx context.Context, id domain.RoomID, visibility domain.Visibility) (*domain.Room, error)
	DeleteRoom(ctx context.Context, id domain.RoomID) error

	Join(ctx context.Context, roomID domain.RoomID, params JoinParams) (*domain.Participant, error)
	Leave(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error
	ListParticipants(ctx context.Context, roomID domain.RoomID) ([]*domain.Participant, error)

	SendMessage(ctx context.Context, roomID domain.RoomID, user, text, avatar string) (*domain.Message, error)
	ListMessages(ctx context.Context, roomID domain.RoomID) ([]*domain.Message, error)

	GetMediaState(ctx context.Context, roomID domain.RoomID) (*domain.MediaState, error)
	SetMediaState(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) (*domain.MediaState, error)
}

// EventPublisher fans room mutations out to listeners (the sync gateway).
type EventPublisher interface {
	PublishRoomUpdated(ctx context.Context, room *domain.Room) error
	PublishRoomDeleted(ctx context.Context, roomID domain.RoomID) error
	PublishParticipantJoined(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error
	PublishParticipantLeft(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error
	PublishMessageCreated(ctx context.Context, roomID domain.RoomID, msg *domain.Message) error
	PublishMediaUpdated(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) error
}
