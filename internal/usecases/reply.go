package usecases

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// The AI collaborator has shipped three reply shapes over its lifetime:
// a bare JSON string, {"response": "..."} and {"content": "..."}. Anything
// else is replaced with a fixed safe default by the caller; an
// unrecognized structure is never propagated toward the caller's ear.

// NormalizeAIReply extracts the reply text from a raw collaborator
// response. ok=false means the shape was unrecognized or the text empty.
func NormalizeAIReply(raw json.RawMessage) (text string, ok bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", false
	}

	// Bare JSON string
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return nonEmpty(plain)
	}

	// Object envelope: response takes precedence over content
	var envelope struct {
		Response string `json:"response"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Response != "" {
			return nonEmpty(envelope.Response)
		}
		if envelope.Content != "" {
			return nonEmpty(envelope.Content)
		}
		return "", false
	}

	// Valid JSON that is neither a string nor a known envelope (numbers,
	// booleans, arrays, null) is an unrecognized shape, not speakable text.
	if json.Valid(raw) {
		return "", false
	}

	// Not JSON at all: older deployments answered with raw text bodies.
	if utf8.ValidString(trimmed) {
		return nonEmpty(trimmed)
	}

	return "", false
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
