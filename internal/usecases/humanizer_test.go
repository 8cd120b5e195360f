package usecases

import (
	"math/rand"
	"strings"
	"testing"

	"voicedesk/internal/entities"
)

func isCueToken(w string) bool {
	if w == breathToken {
		return true
	}
	for _, tok := range ambientTokens {
		if w == tok {
			return true
		}
	}
	return false
}

func TestHumanizePreservesEveryWordInOrder(t *testing.T) {
	input := "Nuestro horario es de nueve a seis de lunes a viernes"
	want := strings.Fields(input)

	// Many seeds so both insertion branches are exercised
	for seed := int64(0); seed < 50; seed++ {
		h := NewHumanizer(rand.New(rand.NewSource(seed)))
		out := h.Humanize(input, nil)

		var got []string
		for _, w := range strings.Fields(out) {
			if !isCueToken(w) {
				got = append(got, w)
			}
		}

		if len(got) != len(want) {
			t.Fatalf("seed %d: word count changed: got %v, want %v", seed, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("seed %d: word %d = %q, want %q", seed, i, got[i], want[i])
			}
		}
	}
}

func TestHumanizeNeverInsertsAtTheFront(t *testing.T) {
	input := "Hola buenos días en qué puedo ayudarle"
	first := strings.Fields(input)[0]

	for seed := int64(0); seed < 50; seed++ {
		h := NewHumanizer(rand.New(rand.NewSource(seed)))
		out := strings.Fields(h.Humanize(input, nil))
		if out[0] != first {
			t.Fatalf("seed %d: utterance must not start with a cue token, got %q", seed, out[0])
		}
	}
}

func TestHumanizeSubstitutesCompanyPlaceholder(t *testing.T) {
	h := NewHumanizer(rand.New(rand.NewSource(1)))
	cfg := &entities.TenantCallConfig{CompanyName: "Clínica Dental Sonrisa"}

	out := h.Humanize("Gracias por llamar a {company}, ¿en qué puedo ayudarle?", cfg)
	if strings.Contains(out, CompanyPlaceholder) {
		t.Errorf("placeholder survived: %q", out)
	}
	if !strings.Contains(out, "Clínica Dental Sonrisa") {
		t.Errorf("company name missing: %q", out)
	}
}

func TestHumanizeLeavesShortTextAlone(t *testing.T) {
	h := NewHumanizer(rand.New(rand.NewSource(1)))
	for _, input := range []string{"", "Hola"} {
		if out := h.Humanize(input, nil); out != input {
			t.Errorf("Humanize(%q) = %q, want unchanged", input, out)
		}
	}
}
