package usecases

import (
	"math/rand"
	"strings"
	"sync"

	"voicedesk/internal/entities"
)

// CompanyPlaceholder is the token tenants may use in greetings and the AI
// may echo back; it is substituted with the tenant's actual company name.
const CompanyPlaceholder = "{company}"

// Insertion tokens the synthesis provider renders as non-speech audio.
var ambientTokens = []string{
	"[sound:office]",
	"[sound:keyboard]",
	"[sound:papers]",
}

const breathToken = "[breath]"

// Humanizer makes assistant text sound less canned before synthesis by
// inserting ambient and breathing cues at word boundaries. It is strictly
// additive: every word of the input survives, in order.
//
// Applied once per assistant turn, after the reply is finalized and before
// synthesis. Re-application is not guarded against; it only compounds the
// inserted noise.
type Humanizer struct {
	mu            sync.Mutex
	rng           *rand.Rand
	ambientChance float64
	breathChance  float64
}

// NewHumanizer uses the given random source so tests can pin insertion
// positions. Pass rand.New(rand.NewSource(time.Now().UnixNano())) in
// production wiring.
func NewHumanizer(rng *rand.Rand) *Humanizer {
	return &Humanizer{
		rng:           rng,
		ambientChance: 0.15,
		breathChance:  0.25,
	}
}

// Humanize substitutes the company placeholder and probabilistically
// inserts one ambient token (~15%) and one breath marker (~25%) at random
// word boundaries.
func (h *Humanizer) Humanize(text string, cfg *entities.TenantCallConfig) string {
	if cfg != nil {
		text = strings.ReplaceAll(text, CompanyPlaceholder, cfg.CompanyName)
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rng.Float64() < h.ambientChance {
		token := ambientTokens[h.rng.Intn(len(ambientTokens))]
		words = insertAt(words, 1+h.rng.Intn(len(words)-1), token)
	}
	if h.rng.Float64() < h.breathChance {
		words = insertAt(words, 1+h.rng.Intn(len(words)-1), breathToken)
	}

	return strings.Join(words, " ")
}

// insertAt returns words with token inserted before index i.
func insertAt(words []string, i int, token string) []string {
	out := make([]string, 0, len(words)+1)
	out = append(out, words[:i]...)
	out = append(out, token)
	return append(out, words[i:]...)
}
