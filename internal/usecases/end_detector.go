package usecases

import "strings"

// farewellPhrases is the fixed vocabulary that marks a reply as ending the
// conversation. Matching is case-insensitive substring, so "Hasta luego,
// que tenga un buen día" triggers on "hasta luego".
var farewellPhrases = []string{
	"adiós",
	"adios",
	"hasta luego",
	"hasta pronto",
	"hasta mañana",
	"que tenga un buen día",
	"que tengas un buen día",
	"gracias por llamar",
	"gracias por su llamada",
	"nos vemos",
	"feliz día",
	"goodbye",
	"good bye",
	"bye bye",
	"see you",
	"have a good day",
	"have a great day",
	"thank you for calling",
	"thanks for calling",
}

// IsEnding reports whether reply text signals the conversation is over.
// Pure function, no state. Run it on the pre-humanization reply: inserted
// cue tokens must not affect the decision.
func IsEnding(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range farewellPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
