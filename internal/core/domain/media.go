package domain

import "time"

// MediaState is the single now-playing document per room. The host writes
// it; every other participant renders it. Last writer wins.
type MediaState struct {
	URL         string    `json:"url"`
	IsYouTube   bool      `json:"isYouTube"`
	SourceText  string    `json:"sourceText,omitempty"`
	IsPlaying   bool      `json:"isPlaying"`
	CurrentTime float64   `json:"currentTime"`
	Duration    float64   `json:"duration"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
