package entities

import "time"

// Gateway events. One webhook invocation carries exactly one of these;
// no session object survives between them beyond the durable call log.

// CallInitiated is the gateway's "incoming call" event.
type CallInitiated struct {
	CallSID      string
	CallerNumber string
	CalleeNumber string
}

// RecordingReady is the gateway's "caller recording available" event.
type RecordingReady struct {
	CallSID         string
	RecordingURL    string
	DurationSeconds int
}

// StatusChanged is the gateway's call lifecycle notification. It never
// produces a conversational transition, only logging and billing.
type StatusChanged struct {
	CallSID         string
	Status          string
	DurationSeconds int
}

// Speaker identifies who produced a conversation turn.
const (
	SpeakerCaller    = "caller"
	SpeakerAssistant = "assistant"
)

// ConversationTurn is one utterance, persisted for audit. The next turn is
// re-derivable from the call SID alone, so these are never read back on the
// hot path.
type ConversationTurn struct {
	CallSID   string    `json:"call_sid"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Audio artifact sources.
const (
	AudioSourceProvider = "provider" // synthesized by the TTS provider
	AudioSourceGateway  = "gateway"  // spoken by the gateway's built-in voice
)

// AudioArtifact is the result of a synthesis attempt. A nil artifact means
// the provider failed and the utterance degrades to the gateway voice.
type AudioArtifact struct {
	Source           string
	URL              string
	EstimatedSeconds int
}

// CallRecord is the durable call log row.
type CallRecord struct {
	CallSID         string     `json:"call_sid"`
	TenantID        int        `json:"tenant_id"`
	CallerNumber    string     `json:"caller_number"`
	CalleeNumber    string     `json:"callee_number"`
	Transcript      string     `json:"transcript"`
	RecordingURL    string     `json:"recording_url"`
	DurationSeconds int        `json:"duration_seconds"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}
