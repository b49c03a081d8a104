package domain

import "time"

type ParticipantKey string

// Participant is one active member of a room. The key is server-generated;
// the ID and name are client-supplied (there is no identity provider).
type Participant struct {
	Key       ParticipantKey `json:"key"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	AvatarURL string         `json:"avatarUrl,omitempty"`
	Hint      string         `json:"hint,omitempty"`
	IsHost    bool           `json:"isHost"`
	JoinedAt  time.Time      `json:"joinedAt"`
}
