package infrastructure

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTranscriptExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short text untouched", "Hola", 10, "Hola"},
		{"exact length untouched", "Hola", 4, "Hola"},
		{"ascii truncation", "Hola mundo", 4, "Hola..."},
		{"whitespace trimmed", "  Hola  ", 10, "Hola"},
		{"cut lands mid-rune", "ñññ", 3, "ñ..."},
		{"cut lands on rune boundary", "ñññ", 4, "ññ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transcriptExcerpt(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("transcriptExcerpt(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("excerpt is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestTranscriptExcerptSpanishTranscript(t *testing.T) {
	transcript := strings.Repeat("Quería pedir cita para mañana por la tarde. ", 20)
	got := transcriptExcerpt(transcript, 400)
	if !utf8.ValidString(got) {
		t.Fatalf("excerpt split a rune: %q", got)
	}
	if len(got) > 400+len("...") {
		t.Errorf("excerpt length = %d", len(got))
	}
}
