package domain

import "time"

// Message is one chat message. Messages are append-only and sorted by
// timestamp for display.
type Message struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Avatar    string    `json:"avatar,omitempty"`
}
