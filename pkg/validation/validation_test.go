package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRoomID(t *testing.T) {
	assert.NoError(t, ValidateRoomID("movie-night-a3f9k"))
	assert.NoError(t, ValidateRoomID("Room-42"))

	assert.Error(t, ValidateRoomID(""))
	assert.Error(t, ValidateRoomID("has space"))
	assert.Error(t, ValidateRoomID("under_score"))
	assert.Error(t, ValidateRoomID("emoji🎬"))
	assert.Error(t, ValidateRoomID(strings.Repeat("a", 101)))
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName("Sam"))
	assert.NoError(t, ValidateDisplayName("Sam 🎬"))

	assert.Error(t, ValidateDisplayName(""))
	assert.Error(t, ValidateDisplayName("   "))
	assert.Error(t, ValidateDisplayName(strings.Repeat("x", 51)))
}

func TestValidateVisibility(t *testing.T) {
	assert.NoError(t, ValidateVisibility("Public"))
	assert.NoError(t, ValidateVisibility("Private"))

	assert.Error(t, ValidateVisibility("public"))
	assert.Error(t, ValidateVisibility("Hidden"))
	assert.Error(t, ValidateVisibility(""))
}

func TestValidateMediaURL(t *testing.T) {
	assert.NoError(t, ValidateMediaURL("https://example.com/v.mp4"))
	assert.NoError(t, ValidateMediaURL("http://example.com/v.mp4"))

	assert.Error(t, ValidateMediaURL(""))
	assert.Error(t, ValidateMediaURL("ftp://example.com/v.mp4"))
	assert.Error(t, ValidateMediaURL("not a url"))
}

func TestValidateServiceURL(t *testing.T) {
	assert.NoError(t, ValidateServiceURL("wss://media.example.com"))
	assert.NoError(t, ValidateServiceURL("ws://localhost:7880"))

	assert.Error(t, ValidateServiceURL("https://media.example.com"))
	assert.Error(t, ValidateServiceURL(""))
}

func TestIsValidationError(t *testing.T) {
	err := ValidateRoomID("")
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(errors.New("other")))
	assert.False(t, IsValidationError(nil))
}
