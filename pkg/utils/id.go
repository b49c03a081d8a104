package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	invalidIDChars = regexp.MustCompile(`[^a-z0-9-]`)
)

// SlugifyRoomName normalizes a raw room name into a route-safe ID base:
// trimmed, lower-cased, whitespace runs collapsed to a single hyphen,
// everything outside [a-z0-9-] stripped.
func SlugifyRoomName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = whitespaceRuns.ReplaceAllString(s, "-")
	s = invalidIDChars.ReplaceAllString(s, "")
	return s
}

// GenerateRoomSuffix returns a random base36 suffix of the given length.
func GenerateRoomSuffix(length int) string {
	if length <= 0 {
		length = 5
	}
	b := make([]byte, length)
	rand.Read(b)
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b)
}

// NewRoomID builds a unique room ID from a raw name. Two calls with the
// same raw input produce different IDs; both match ^[a-zA-Z0-9-]+$.
func NewRoomID(rawName string, suffixLength int) string {
	base := SlugifyRoomName(rawName)
	suffix := GenerateRoomSuffix(suffixLength)
	if base == "" {
		return "room-" + suffix
	}
	return base + "-" + suffix
}

// QuickRoomID builds a room ID with no user-supplied name.
func QuickRoomID(suffixLength int) string {
	return "room-" + GenerateRoomSuffix(suffixLength)
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", timestamp, hex.EncodeToString(b))
}
