package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeString strips control characters and trims whitespace
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// TruncateString truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// RedactSecret shows the first and last three characters of a secret plus
// its length, for configuration diagnostics.
func RedactSecret(s string) string {
	if s == "" {
		return "Not set"
	}
	if len(s) <= 6 {
		return fmt.Sprintf("%s (%d chars)", strings.Repeat("*", len(s)), len(s))
	}
	return fmt.Sprintf("%s...%s (%d chars)", s[:3], s[len(s)-3:], len(s))
}

// ContainsAny checks if string contains any of the substrings
func ContainsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
