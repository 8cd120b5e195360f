package infrastructure

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment at startup.
type Config struct {
	DatabaseURL string
	ListenAddr  string
	JWTSecret   string

	// PublicBaseURL is the externally reachable host the telephony gateway
	// and its media player use to fetch synthesized audio.
	PublicBaseURL string

	// Conversational-AI collaborator
	AIBaseURL string
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration

	// Speech-to-text provider
	STTBaseURL string
	STTAPIKey  string

	// Text-to-speech provider
	TTSBaseURL string
	TTSAPIKey  string

	// AudioDir is the local directory served at /audio for synthesized files.
	AudioDir string

	// TenantCacheTTL bounds how stale a cached tenant config may be.
	TenantCacheTTL time.Duration

	// TelegramToken enables post-call notifications when set.
	TelegramToken string
}

// LoadConfig reads the environment into a Config. Only the database URL and
// JWT secret are hard requirements; every provider key may be absent in
// which case the matching adapter degrades (logged at startup).
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ListenAddr:     envOr("LISTEN_ADDR", "0.0.0.0:8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		PublicBaseURL:  envOr("PUBLIC_BASE_URL", "http://localhost:8080"),
		AIBaseURL:      envOr("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:       os.Getenv("AI_API_KEY"),
		AIModel:        envOr("AI_MODEL", "gpt-4o-mini"),
		AITimeout:      envDuration("AI_TIMEOUT", 15*time.Second),
		STTBaseURL:     envOr("STT_BASE_URL", "https://api.openai.com/v1"),
		STTAPIKey:      os.Getenv("STT_API_KEY"),
		TTSBaseURL:     envOr("TTS_BASE_URL", "https://api.elevenlabs.io/v1"),
		TTSAPIKey:      os.Getenv("TTS_API_KEY"),
		AudioDir:       envOr("AUDIO_DIR", "audio"),
		TenantCacheTTL: envDuration("TENANT_CACHE_TTL", 5*time.Minute),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
