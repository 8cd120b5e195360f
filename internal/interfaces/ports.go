package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"voicedesk/internal/entities"
)

// ConfigSource yields per-tenant call configuration. The cache and the
// Postgres repository both satisfy it, so the controller can be wired to
// either in tests.
type ConfigSource interface {
	// GetByCallee resolves a tenant by the called phone number.
	// Returns (nil, nil) when no tenant owns the number.
	GetByCallee(ctx context.Context, calleeNumber string) (*entities.TenantCallConfig, error)
}

// ConfigCache is a ConfigSource with explicit invalidation, called by the
// dashboard when a tenant edits their configuration.
type ConfigCache interface {
	ConfigSource
	Invalidate(calleeNumber string)
}

// AIClient is the conversational-AI collaborator. Reply is returned as the
// raw response payload; shape normalization belongs to the caller.
type AIClient interface {
	Reply(ctx context.Context, req AIRequest) (json.RawMessage, error)
}

// AIRequest carries one caller utterance plus the business context the
// model answers from.
type AIRequest struct {
	TenantID  int             `json:"tenant_id"`
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Context   BusinessContext `json:"context"`
}

// BusinessContext is the tenant knowledge sent with every AI request.
type BusinessContext struct {
	CompanyInfo   string                  `json:"company_info"`
	FAQs          []entities.FAQ          `json:"faqs"`
	ReferenceDocs []entities.ReferenceDoc `json:"reference_docs"`
	BusinessHours entities.BusinessHours  `json:"business_hours"`
	Language      string                  `json:"language"`
}

// Transcriber converts a recorded-audio locator into text.
type Transcriber interface {
	// Transcribe returns "" for unintelligible audio. An error means the
	// provider could not be reached or rejected the request.
	Transcribe(ctx context.Context, audioURL, languageHint string) (string, error)

	// TranscribeWithRetry retries Transcribe with linear backoff and maps
	// exhaustion to ("", nil): callers treat an empty transcript as
	// "unintelligible", never as a fatal error.
	TranscribeWithRetry(ctx context.Context, audioURL, languageHint string, maxAttempts int) (string, error)
}

// Synthesizer renders text as playable audio. A nil artifact (with nil
// error) signals provider failure; the caller degrades that utterance to
// the gateway's built-in voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, cfg *entities.TenantCallConfig) *entities.AudioArtifact
}

// CallStore is the durable call log owned by the persistence collaborator.
type CallStore interface {
	CreateCall(ctx context.Context, rec *entities.CallRecord) error
	AppendTurn(ctx context.Context, turn *entities.ConversationTurn) error
	AppendTranscript(ctx context.Context, callSID, text, recordingURL string) error
	FinishCall(ctx context.Context, callSID, status string, durationSeconds int, endedAt time.Time) error
	GetCall(ctx context.Context, callSID string) (*entities.CallRecord, error)
}

// UsageTracker maintains the per-tenant daily call counters consulted for
// quota checks at greeting time.
type UsageTracker interface {
	IncrementAnswered(ctx context.Context, tenantID int) error
	AddSeconds(ctx context.Context, tenantID, seconds int) error
	CanAnswerCall(ctx context.Context, tenantID, dailyCap int) (bool, error)
}

// Notifier delivers post-call summaries to the tenant. Implementations must
// never fail the call path; errors are logged and dropped.
type Notifier interface {
	NotifyCallEnded(cfg *entities.TenantCallConfig, rec *entities.CallRecord)
}
