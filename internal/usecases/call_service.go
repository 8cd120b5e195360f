package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voicedesk/internal/entities"
	"voicedesk/internal/interfaces"
	"voicedesk/internal/twiml"
)

// Recording continuation parameters attached to every non-terminal turn.
const (
	recordMaxSeconds     = 30
	recordSilenceSeconds = 5
	recordFinishKey      = "#"

	transcribeMaxAttempts = 2

	defaultLanguage = "es-ES"
)

// Fixed utterances. These are the only texts that may reach the caller on
// an error path; raw error detail never does.
const (
	apologyText       = "Lo sentimos, ha ocurrido un problema técnico. Por favor, inténtelo de nuevo más tarde. Adiós."
	unknownNumberText = "Lo sentimos, este número no está disponible en este momento. Adiós."
	lineBusyText      = "Lo sentimos, no podemos atender más llamadas hoy. Por favor, inténtelo mañana. Adiós."
	clarifyText       = "Perdone, no le he entendido bien. ¿Puede repetirlo, por favor?"
	safeDefaultReply  = "Disculpe, estamos teniendo un pequeño problema técnico. ¿Podría repetir su consulta?"
	closingLineText   = "Gracias por su llamada. ¡Hasta pronto!"

	greetingOpenTemplate   = "Hola, le atiende el asistente virtual de %s. ¿En qué puedo ayudarle?"
	greetingClosedTemplate = "Gracias por llamar a %s. En este momento estamos fuera de horario, pero puedo tomar nota de su mensaje. ¿En qué puedo ayudarle?"
)

// CallService drives one call turn by turn:
//
//	Greeting → AwaitingInput → Processing → Responding → (AwaitingInput | Terminated)
//
// Each webhook event is handled independently; everything needed to resume
// is re-derived from the call SID and the config cache. Every handler
// returns exactly one control document, whatever fails inside. The outer
// boundary here is the only place in the pipeline allowed to swallow an
// error, and it always logs the call SID.
type CallService struct {
	configs     interfaces.ConfigSource
	transcriber interfaces.Transcriber
	synthesizer interfaces.Synthesizer
	ai          interfaces.AIClient
	calls       interfaces.CallStore
	usage       interfaces.UsageTracker
	humanizer   *Humanizer
	notifier    interfaces.Notifier

	// recordAction is the webhook path the gateway posts recordings to.
	recordAction string

	now func() time.Time
	log zerolog.Logger
}

// CallServiceDeps wires the controller's collaborators.
type CallServiceDeps struct {
	Configs      interfaces.ConfigSource
	Transcriber  interfaces.Transcriber
	Synthesizer  interfaces.Synthesizer
	AI           interfaces.AIClient
	Calls        interfaces.CallStore
	Usage        interfaces.UsageTracker
	Humanizer    *Humanizer
	Notifier     interfaces.Notifier
	RecordAction string
	Logger       zerolog.Logger
}

func NewCallService(d CallServiceDeps) *CallService {
	return &CallService{
		configs:      d.Configs,
		transcriber:  d.Transcriber,
		synthesizer:  d.Synthesizer,
		ai:           d.AI,
		calls:        d.Calls,
		usage:        d.Usage,
		humanizer:    d.Humanizer,
		notifier:     d.Notifier,
		recordAction: d.RecordAction,
		now:          time.Now,
		log:          d.Logger,
	}
}

// WithClock replaces the time source. Tests only.
func (s *CallService) WithClock(now func() time.Time) *CallService {
	s.now = now
	return s
}

// HandleCallInitiated answers an incoming call with the tenant's greeting
// and a record continuation. Unmapped numbers and exhausted quotas get a
// spoken apology and hangup instead.
func (s *CallService) HandleCallInitiated(ctx context.Context, ev entities.CallInitiated) (doc *twiml.ControlDocument) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("call_sid", ev.CallSID).Interface("panic", r).Msg("call pipeline panicked")
			doc = s.failureDocument()
		}
	}()

	d, err := s.greet(ctx, ev)
	if err != nil {
		s.log.Error().Err(err).Str("call_sid", ev.CallSID).Msg("greeting turn failed")
		return s.failureDocument()
	}
	return d
}

func (s *CallService) greet(ctx context.Context, ev entities.CallInitiated) (*twiml.ControlDocument, error) {
	cfg, err := s.configs.GetByCallee(ctx, ev.CalleeNumber)
	if err != nil {
		return nil, fmt.Errorf("load tenant config: %w", err)
	}
	if cfg == nil {
		// ConfigNotFound is terminal: no tenant, nothing to record for
		s.log.Warn().Str("call_sid", ev.CallSID).Str("callee", ev.CalleeNumber).Msg("callee number unmapped")
		return twiml.New().
			WithAudio("", unknownNumberText, defaultLanguage).
			WithHangup("", defaultLanguage), nil
	}

	allowed, err := s.usage.CanAnswerCall(ctx, cfg.TenantID, cfg.DailyCallCap)
	if err != nil {
		s.log.Warn().Err(err).Str("call_sid", ev.CallSID).Msg("quota check failed, answering anyway")
		allowed = true
	}
	if !allowed {
		s.log.Info().Str("call_sid", ev.CallSID).Int("tenant_id", cfg.TenantID).Msg("daily call cap reached")
		return twiml.New().
			WithAudio("", lineBusyText, cfg.Language).
			WithHangup("", cfg.Language), nil
	}

	rec := &entities.CallRecord{
		CallSID:      ev.CallSID,
		TenantID:     cfg.TenantID,
		CallerNumber: ev.CallerNumber,
		CalleeNumber: ev.CalleeNumber,
		Status:       "in-progress",
	}
	if err := s.calls.CreateCall(ctx, rec); err != nil {
		return nil, fmt.Errorf("create call record: %w", err)
	}
	if err := s.usage.IncrementAnswered(ctx, cfg.TenantID); err != nil {
		s.log.Warn().Err(err).Str("call_sid", ev.CallSID).Msg("usage increment failed")
	}

	// Business hours are evaluated once, at greeting time. A call admitted
	// during open hours is served to completion even past closing.
	greeting := s.selectGreeting(cfg)
	s.logTurn(ctx, ev.CallSID, entities.SpeakerAssistant, greeting)

	s.log.Info().Str("call_sid", ev.CallSID).Int("tenant_id", cfg.TenantID).
		Str("caller", ev.CallerNumber).Msg("call answered")
	return s.respond(ctx, cfg, greeting, false), nil
}

// selectGreeting prefers the tenant-authored greeting during open hours and
// falls back to deterministic templates otherwise.
func (s *CallService) selectGreeting(cfg *entities.TenantCallConfig) string {
	if cfg.BusinessHours.IsOpenAt(s.now()) {
		if strings.TrimSpace(cfg.Greeting) != "" {
			return cfg.Greeting
		}
		return fmt.Sprintf(greetingOpenTemplate, cfg.CompanyName)
	}
	return fmt.Sprintf(greetingClosedTemplate, cfg.CompanyName)
}

// HandleRecordingReady transcribes the caller's utterance, obtains the AI
// reply and emits the next turn. An unintelligible recording yields a
// clarification prompt and another record continuation, never a hangup.
func (s *CallService) HandleRecordingReady(ctx context.Context, ev entities.RecordingReady) (doc *twiml.ControlDocument) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("call_sid", ev.CallSID).Interface("panic", r).Msg("call pipeline panicked")
			doc = s.failureDocument()
		}
	}()

	d, err := s.processRecording(ctx, ev)
	if err != nil {
		s.log.Error().Err(err).Str("call_sid", ev.CallSID).Msg("recording turn failed")
		return s.failureDocument()
	}
	return d
}

func (s *CallService) processRecording(ctx context.Context, ev entities.RecordingReady) (*twiml.ControlDocument, error) {
	rec, err := s.calls.GetCall(ctx, ev.CallSID)
	if err != nil {
		return nil, fmt.Errorf("load call record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("recording for unknown call %s", ev.CallSID)
	}

	cfg, err := s.configs.GetByCallee(ctx, rec.CalleeNumber)
	if err != nil {
		return nil, fmt.Errorf("load tenant config: %w", err)
	}
	if cfg == nil {
		// Tenant deactivated mid-call
		s.log.Warn().Str("call_sid", ev.CallSID).Msg("tenant gone mid-call")
		return twiml.New().
			WithAudio("", unknownNumberText, defaultLanguage).
			WithHangup("", defaultLanguage), nil
	}

	transcript, err := s.transcriber.TranscribeWithRetry(ctx, ev.RecordingURL, cfg.Language, transcribeMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	if transcript == "" {
		// TranscriptionUnavailable is recoverable: reprompt, stay listening
		s.log.Info().Str("call_sid", ev.CallSID).Msg("transcript unavailable, reprompting")
		s.logTurn(ctx, ev.CallSID, entities.SpeakerAssistant, clarifyText)
		return s.respond(ctx, cfg, clarifyText, false), nil
	}

	if err := s.calls.AppendTranscript(ctx, ev.CallSID, transcript, ev.RecordingURL); err != nil {
		s.log.Warn().Err(err).Str("call_sid", ev.CallSID).Msg("transcript persist failed")
	}
	s.logTurn(ctx, ev.CallSID, entities.SpeakerCaller, transcript)

	raw, err := s.ai.Reply(ctx, interfaces.AIRequest{
		TenantID:  cfg.TenantID,
		SessionID: ev.CallSID,
		Message:   transcript,
		Context:   businessContext(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("ai reply: %w", err)
	}

	reply, ok := NormalizeAIReply(raw)
	if !ok {
		// Never propagate an unrecognized structure toward the caller
		s.log.Warn().Str("call_sid", ev.CallSID).Msg("unrecognized ai reply shape, using safe default")
		reply = safeDefaultReply
	}

	// End detection runs on the reply before humanization touches it
	ending := IsEnding(reply)
	s.logTurn(ctx, ev.CallSID, entities.SpeakerAssistant, reply)

	s.log.Info().Str("call_sid", ev.CallSID).Bool("ending", ending).
		Int("transcript_chars", len(transcript)).Msg("turn completed")
	return s.respond(ctx, cfg, reply, ending), nil
}

// HandleStatusChanged records lifecycle transitions. It never produces a
// conversational turn, only the call-log update, usage accounting and the
// tenant notification once the call reaches a terminal status.
func (s *CallService) HandleStatusChanged(ctx context.Context, ev entities.StatusChanged) {
	s.log.Info().Str("call_sid", ev.CallSID).Str("status", ev.Status).
		Int("duration", ev.DurationSeconds).Msg("call status changed")

	if !isTerminalStatus(ev.Status) {
		return
	}

	if err := s.calls.FinishCall(ctx, ev.CallSID, ev.Status, ev.DurationSeconds, s.now()); err != nil {
		s.log.Warn().Err(err).Str("call_sid", ev.CallSID).Msg("call finish persist failed")
	}

	rec, err := s.calls.GetCall(ctx, ev.CallSID)
	if err != nil || rec == nil {
		return
	}
	if err := s.usage.AddSeconds(ctx, rec.TenantID, ev.DurationSeconds); err != nil {
		s.log.Warn().Err(err).Str("call_sid", ev.CallSID).Msg("usage accounting failed")
	}

	cfg, err := s.configs.GetByCallee(ctx, rec.CalleeNumber)
	if err != nil || cfg == nil || s.notifier == nil {
		return
	}
	go s.notifier.NotifyCallEnded(cfg, rec)
}

// respond humanizes and synthesizes one assistant utterance and wraps it in
// a control document. Synthesis failure degrades that single utterance to
// the gateway voice; the state machine continues unaffected. The spoken
// fallback uses the pre-humanization text so cue tokens are never read out
// loud.
func (s *CallService) respond(ctx context.Context, cfg *entities.TenantCallConfig, text string, ending bool) *twiml.ControlDocument {
	humanized := s.humanizer.Humanize(text, cfg)
	fallback := strings.ReplaceAll(text, CompanyPlaceholder, cfg.CompanyName)

	audioURL := ""
	if artifact := s.synthesizer.Synthesize(ctx, humanized, cfg); artifact != nil {
		audioURL = artifact.URL
	}

	doc := twiml.New().WithAudio(audioURL, fallback, cfg.Language)
	if ending {
		return doc.WithHangup(closingLineText, cfg.Language)
	}
	return doc.WithRecord(s.recordAction, recordMaxSeconds, recordSilenceSeconds, recordFinishKey)
}

// failureDocument is the boundary response: spoken apology plus hangup.
func (s *CallService) failureDocument() *twiml.ControlDocument {
	return twiml.New().
		WithAudio("", apologyText, defaultLanguage).
		WithHangup("", defaultLanguage)
}

// logTurn persists one utterance for audit. Audit failures are logged and
// dropped; they must not break the call.
func (s *CallService) logTurn(ctx context.Context, callSID, speaker, text string) {
	err := s.calls.AppendTurn(ctx, &entities.ConversationTurn{
		CallSID: callSID,
		Speaker: speaker,
		Content: text,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("call_sid", callSID).Str("speaker", speaker).Msg("turn persist failed")
	}
}

func businessContext(cfg *entities.TenantCallConfig) interfaces.BusinessContext {
	return interfaces.BusinessContext{
		CompanyInfo:   cfg.CompanyInfo,
		FAQs:          cfg.FAQs,
		ReferenceDocs: cfg.ReferenceDocs,
		BusinessHours: cfg.BusinessHours,
		Language:      cfg.Language,
	}
}

func isTerminalStatus(status string) bool {
	switch status {
	case "completed", "busy", "failed", "no-answer", "canceled":
		return true
	}
	return false
}
