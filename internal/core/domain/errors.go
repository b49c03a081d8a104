package domain

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomExists          = errors.New("room already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrMediaStateNotFound  = errors.New("media state not found")
)
