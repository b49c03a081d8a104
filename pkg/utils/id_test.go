package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

func TestSlugifyRoomName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Movie Night", "movie-night"},
		{"  Movie   Night  ", "movie-night"},
		{"MOVIE NIGHT!!", "movie-night"},
		{"fête du cinéma", "fte-du-cinma"},
		{"already-fine-123", "already-fine-123"},
		{"!!!", ""},
		{"", ""},
		{"tabs\tand\nnewlines", "tabs-and-newlines"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SlugifyRoomName(tc.in), "input: %q", tc.in)
	}
}

func TestNewRoomID_AlwaysRouteSafe(t *testing.T) {
	inputs := []string{"Movie Night", "!!!", "", "  spaced   out  ", "ALL CAPS 42"}

	for _, in := range inputs {
		id := NewRoomID(in, 5)
		assert.Regexp(t, idPattern, id, "input: %q", in)
	}
}

func TestNewRoomID_EmptyBaseFallsBackToRoomPrefix(t *testing.T) {
	id := NewRoomID("!!!", 5)
	assert.Regexp(t, `^room-[0-9a-z]{5}$`, id)
}

func TestNewRoomID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRoomID("movie night", 5)
		assert.False(t, seen[id], "duplicate id: %s", id)
		seen[id] = true
	}
}

func TestQuickRoomID(t *testing.T) {
	assert.Regexp(t, `^room-[0-9a-z]{7}$`, QuickRoomID(7))
}

func TestGenerateRoomSuffix_Length(t *testing.T) {
	assert.Len(t, GenerateRoomSuffix(5), 5)
	assert.Len(t, GenerateRoomSuffix(7), 7)
	assert.Len(t, GenerateRoomSuffix(0), 5)
}

func TestRedactSecret(t *testing.T) {
	assert.Equal(t, "Not set", RedactSecret(""))
	assert.Equal(t, "****** (6 chars)", RedactSecret("secret"))
	assert.Equal(t, "lon...lue (15 chars)", RedactSecret("longsecretvalue"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("data channel error", "data channel", "ice"))
	assert.True(t, ContainsAny("ice negotiation failed", "data channel", "ice"))
	assert.False(t, ContainsAny("permission denied", "data channel", "ice"))
}
