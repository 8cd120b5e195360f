package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicedesk/internal/entities"
)

// synthesisTimeout bounds one provider round-trip. The gateway expects a
// control document within its own webhook deadline, so a slow provider is
// treated the same as a failed one.
const synthesisTimeout = 8 * time.Second

// DefaultVoice is the brand-default identity used whenever a tenant asks
// for a voice that is not on the allow-list. Downgrading silently keeps
// every tenant on a vetted voice instead of failing the call.
const DefaultVoice = "lucia"

// allowedVoices maps platform voice names to provider voice IDs.
var allowedVoices = map[string]string{
	"lucia":  "pFZP5JQG7iQjIQuC4Bku",
	"mateo":  "onwK4e9ZLuTAKqWW03F9",
	"amelia": "XrExE9yKIg1WjnnlVkGX",
	"diego":  "TX3LPaxmHKxFdv7VOQHJ",
}

// voiceProsody carries the rate/pitch/emphasis hints wrapped around the
// text before synthesis.
type voiceProsody struct {
	Rate     string
	Pitch    string
	Emphasis string
}

var prosodyByVoice = map[string]voiceProsody{
	"lucia":  {Rate: "medium", Pitch: "medium", Emphasis: "moderate"},
	"mateo":  {Rate: "medium", Pitch: "low", Emphasis: "moderate"},
	"amelia": {Rate: "slow", Pitch: "medium", Emphasis: "reduced"},
	"diego":  {Rate: "medium", Pitch: "low", Emphasis: "strong"},
}

// SpeechSynthesizer renders assistant text as MP3 audio through an
// ElevenLabs-style provider and publishes it under the platform's public
// audio directory. A nil return is the degraded-path signal: the caller
// falls back to the gateway's built-in voice for that single utterance.
type SpeechSynthesizer struct {
	baseURL   string
	apiKey    string
	audioDir  string
	publicURL string
	client    *http.Client
	log       zerolog.Logger
}

func NewSpeechSynthesizer(baseURL, apiKey, audioDir, publicURL string, log zerolog.Logger) *SpeechSynthesizer {
	return &SpeechSynthesizer{
		baseURL:   baseURL,
		apiKey:    apiKey,
		audioDir:  audioDir,
		publicURL: strings.TrimRight(publicURL, "/"),
		client:    &http.Client{Timeout: synthesisTimeout},
		log:       log,
	}
}

// ResolveVoice maps a requested voice to an allow-listed one, downgrading
// unknown identities to the default.
func ResolveVoice(requested string) string {
	name := strings.ToLower(strings.TrimSpace(requested))
	if _, ok := allowedVoices[name]; ok {
		return name
	}
	return DefaultVoice
}

// Synthesize renders text for the tenant's voice and returns the published
// artifact, or nil when the provider is unavailable.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text string, cfg *entities.TenantCallConfig) *entities.AudioArtifact {
	voice := ResolveVoice(cfg.Voice)
	envelope := wrapProsody(text, voice, cfg.Language)

	audio, err := s.requestAudio(ctx, envelope, allowedVoices[voice])
	if err != nil {
		s.log.Warn().Err(err).Str("voice", voice).Msg("synthesis failed, degrading to gateway voice")
		return nil
	}

	name := fmt.Sprintf("%d-%s.mp3", time.Now().UnixNano(), uuid.NewString()[:8])
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		s.log.Warn().Err(err).Msg("audio dir unavailable, degrading to gateway voice")
		return nil
	}
	if err := os.WriteFile(filepath.Join(s.audioDir, name), audio, 0o644); err != nil {
		s.log.Warn().Err(err).Msg("audio write failed, degrading to gateway voice")
		return nil
	}

	return &entities.AudioArtifact{
		Source:           entities.AudioSourceProvider,
		URL:              s.publicURL + "/audio/" + name,
		EstimatedSeconds: estimateSpeechSeconds(text),
	}
}

func (s *SpeechSynthesizer) requestAudio(ctx context.Context, envelope, providerVoiceID string) ([]byte, error) {
	payload := map[string]any{
		"text":     envelope,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]any{
			"stability":        0.55,
			"similarity_boost": 0.75,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, providerVoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	if s.apiKey != "" {
		req.Header.Set("xi-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesis provider status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, 25<<20))
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis provider returned empty audio")
	}
	return audio, nil
}

// wrapProsody puts the markup envelope around the text with the voice's
// rate/pitch/emphasis hints.
func wrapProsody(text, voice, language string) string {
	p, ok := prosodyByVoice[voice]
	if !ok {
		p = prosodyByVoice[DefaultVoice]
	}
	return fmt.Sprintf(
		`<speak xml:lang=%q><prosody rate=%q pitch=%q><emphasis level=%q>%s</emphasis></prosody></speak>`,
		language, p.Rate, p.Pitch, p.Emphasis, text,
	)
}

// estimateSpeechSeconds approximates playback length at conversational
// speaking pace (~150 words per minute).
func estimateSpeechSeconds(text string) int {
	words := len(strings.Fields(text))
	secs := (words*60 + 149) / 150
	if secs < 1 {
		secs = 1
	}
	return secs
}
