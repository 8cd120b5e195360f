package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Recording locators are only dispatched when they come from a telephony
// provider we recognize, or carry a plain audio extension. Anything else is
// rejected before a single network call is made.
var allowedRecordingHosts = []string{
	"api.twilio.com",
	"api.telnyx.com",
	"media.twiliocdn.com",
}

var allowedRecordingExts = []string{".wav", ".mp3", ".ogg", ".flac"}

// WhisperTranscriber converts recorded call audio into text through a
// Whisper-style transcription endpoint. The recording is fetched from the
// gateway first, then uploaded to the provider.
type WhisperTranscriber struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	sleep   func(time.Duration)
	log     zerolog.Logger
}

func NewWhisperTranscriber(baseURL, apiKey string, log zerolog.Logger) *WhisperTranscriber {
	return &WhisperTranscriber{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   "whisper-1",
		client:  &http.Client{Timeout: 20 * time.Second},
		sleep:   time.Sleep,
		log:     log,
	}
}

// WithSleep replaces the backoff sleep. Tests only.
func (t *WhisperTranscriber) WithSleep(sleep func(time.Duration)) *WhisperTranscriber {
	t.sleep = sleep
	return t
}

// ValidateLocator checks an audio locator against the source allow-list.
func ValidateLocator(audioURL string) error {
	u, err := url.Parse(audioURL)
	if err != nil {
		return fmt.Errorf("invalid audio locator: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("audio locator scheme %q not allowed", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedRecordingHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}

	path := strings.ToLower(u.Path)
	for _, ext := range allowedRecordingExts {
		if strings.HasSuffix(path, ext) {
			return nil
		}
	}

	return fmt.Errorf("audio locator %q matches no allowed host or extension", host)
}

// Transcribe fetches the recording and sends it to the provider. An empty
// string with nil error means the provider heard nothing intelligible.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioURL, languageHint string) (string, error) {
	if err := ValidateLocator(audioURL); err != nil {
		return "", err
	}

	audio, err := t.fetchRecording(ctx, audioURL)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "recording"+recordingExt(audioURL))
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	writer.WriteField("model", t.model)
	if languageHint != "" {
		// Provider expects a bare ISO-639-1 code, not a full locale
		writer.WriteField("language", primaryLanguage(languageHint))
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transcription provider status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}

	return strings.TrimSpace(result.Text), nil
}

// TranscribeWithRetry attempts sequentially with linear backoff
// (attempt * 1s) and returns the first non-empty transcript. Exhaustion maps
// to ("", nil): an unintelligible caller is not a failure.
func (t *WhisperTranscriber) TranscribeWithRetry(ctx context.Context, audioURL, languageHint string, maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := t.Transcribe(ctx, audioURL, languageHint)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			t.log.Warn().Err(err).Int("attempt", attempt).Str("audio_url", audioURL).Msg("transcription attempt failed")
		}
		if attempt < maxAttempts {
			t.sleep(time.Duration(attempt) * time.Second)
		}
	}

	return "", nil
}

func (t *WhisperTranscriber) fetchRecording(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build recording request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recording fetch status %d", resp.StatusCode)
	}

	// 25MB upload cap on the provider side
	data, err := io.ReadAll(io.LimitReader(resp.Body, 25<<20))
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return data, nil
}

func recordingExt(audioURL string) string {
	path := strings.ToLower(audioURL)
	for _, ext := range allowedRecordingExts {
		if strings.HasSuffix(path, ext) {
			return ext
		}
	}
	return ".wav"
}

// primaryLanguage reduces "es-ES" to "es".
func primaryLanguage(locale string) string {
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		return strings.ToLower(locale[:i])
	}
	return strings.ToLower(locale)
}
