package http

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation constants
const (
	MaxCompanyNameLength = 255
	MaxGreetingLength    = 2000
	MaxCompanyInfoLength = 50000 // feeds the AI context
	MaxFAQEntries        = 100
	MaxReferenceDocs     = 50
	MaxDocContentLength  = 50000
)

var (
	phoneRe  = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	localeRe = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

// ValidPhoneNumber checks E.164 format.
func ValidPhoneNumber(s string) bool {
	return phoneRe.MatchString(s)
}

// ValidLocale checks a BCP-47-ish tag like "es" or "es-ES".
func ValidLocale(s string) bool {
	return localeRe.MatchString(s)
}

// SanitizeString removes null bytes and control characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Keep only valid UTF-8
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// ValidateLength checks if string is within bounds
func ValidateLength(s string, min, max int) bool {
	l := len(s)
	return l >= min && l <= max
}
