package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// RoomIDRegex validates room ID format, matching the /room/{roomId} route constraint
	RoomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

	// ParticipantKeyRegex validates participant key format
	ParticipantKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Error marks a failed input check so callers can map it to a 400 response.
type Error struct {
	msg string
}

func (e *Error) Error() string {
	return e.msg
}

func errorf(format string, args ...interface{}) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err originated from this package.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// ValidateRoomID validates room ID
func ValidateRoomID(roomID string) error {
	if roomID == "" {
		return errorf("room ID is required")
	}
	if len(roomID) > 100 {
		return errorf("room ID is too long (max 100 characters)")
	}
	if !RoomIDRegex.MatchString(roomID) {
		return errorf("invalid room ID format (only letters, numbers, - allowed)")
	}
	return nil
}

// ValidateDisplayName validates a participant display name
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errorf("display name is required")
	}
	if utf8.RuneCountInString(name) > 50 {
		return errorf("display name is too long (max 50 characters)")
	}
	if !utf8.ValidString(name) {
		return errorf("display name contains invalid characters")
	}
	return nil
}

// ValidateParticipantKey validates participant key
func ValidateParticipantKey(key string) error {
	if key == "" {
		return errorf("participant key is required")
	}
	if len(key) > 100 {
		return errorf("participant key is too long (max 100 characters)")
	}
	if !ParticipantKeyRegex.MatchString(key) {
		return errorf("invalid participant key format")
	}
	return nil
}

// ValidateRoomName validates a raw room name before sanitization
func ValidateRoomName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errorf("room name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return errorf("room name is too long (max 100 characters)")
	}
	if !utf8.ValidString(name) {
		return errorf("room name contains invalid characters")
	}
	return nil
}

// ValidateVisibility validates room visibility
func ValidateVisibility(visibility string) error {
	if visibility != "Public" && visibility != "Private" {
		return errorf("invalid visibility (must be Public or Private)")
	}
	return nil
}

// ValidateMessageText validates chat message text
func ValidateMessageText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errorf("message text is required")
	}
	if utf8.RuneCountInString(text) > 2000 {
		return errorf("message text is too long (max 2000 characters)")
	}
	return nil
}

// ValidateMediaURL validates a media URL for the now-playing state
func ValidateMediaURL(urlStr string) error {
	if urlStr == "" {
		return errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return errorf("invalid URL format: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errorf("invalid URL scheme (must be http or https)")
	}
	if u.Host == "" {
		return errorf("URL must have a host")
	}
	return nil
}

// ValidateServiceURL validates the media service connection URL
func ValidateServiceURL(urlStr string) error {
	if urlStr == "" {
		return errorf("service URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return errorf("invalid URL format: %v", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errorf("invalid URL scheme (must be ws or wss)")
	}
	if u.Host == "" {
		return errorf("URL must have a host")
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errorf("%s is required", fieldName)
	}
	return nil
}
