package domain

import "time"

type RoomID string

// Visibility controls whether a room appears in the public listing.
type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

// Room is the per-room metadata document.
type Room struct {
	ID               RoomID     `json:"id"`
	Name             string     `json:"name"`
	Visibility       Visibility `json:"visibility"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	ParticipantCount int        `json:"participantCount"`
}

func (r *Room) IsPublic() bool {
	return r.Visibility == VisibilityPublic
}
