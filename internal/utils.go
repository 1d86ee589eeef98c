package internal

import (
	"strings"
	"unicode"
)

// Version is the lanote release.
const Version = "0.3.0"

// ShortID returns the first eight characters of a card id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SanitizeFilename creates a safe filename from a string. Letters of any
// script are kept so Korean and Japanese terms stay readable.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
