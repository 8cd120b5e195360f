package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"voicedesk/internal/entities"
	"voicedesk/internal/infrastructure"
	"voicedesk/internal/twiml"
	"voicedesk/internal/usecases"
)

// staticApologyXML is the last-resort body if even document rendering
// fails; the gateway must never receive an empty response.
const staticApologyXML = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Response><Say language="es-ES">Lo sentimos, ha ocurrido un problema técnico. Adiós.</Say><Hangup></Hangup></Response>`

// VoiceHandler receives the telephony gateway's webhooks. Every handler
// answers 200 with a control document; gateways treat error statuses as
// dead air on a live call.
type VoiceHandler struct {
	callService *usecases.CallService
	limiter     *infrastructure.CallRateLimiter
	log         zerolog.Logger
}

func NewVoiceHandler(callService *usecases.CallService, limiter *infrastructure.CallRateLimiter, log zerolog.Logger) *VoiceHandler {
	return &VoiceHandler{
		callService: callService,
		limiter:     limiter,
		log:         log,
	}
}

// HandleIncoming handles the call-initiated webhook.
func (h *VoiceHandler) HandleIncoming(c *gin.Context) {
	ev := entities.CallInitiated{
		CallSID:      c.PostForm("CallSid"),
		CallerNumber: c.PostForm("From"),
		CalleeNumber: c.PostForm("To"),
	}
	if ev.CallSID == "" {
		c.Data(http.StatusOK, "application/xml", []byte(staticApologyXML))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(ev.CallerNumber) {
		h.log.Warn().Str("call_sid", ev.CallSID).Str("caller", ev.CallerNumber).Msg("caller throttled")
		h.renderDocument(c, twiml.New().
			WithAudio("", "Lo sentimos, no podemos atender su llamada en este momento.", "es-ES").
			WithHangup("", "es-ES"))
		return
	}

	h.renderDocument(c, h.callService.HandleCallInitiated(c.Request.Context(), ev))
}

// HandleRecording handles the recording-ready webhook.
func (h *VoiceHandler) HandleRecording(c *gin.Context) {
	duration, _ := strconv.Atoi(c.PostForm("RecordingDuration"))
	ev := entities.RecordingReady{
		CallSID:         c.PostForm("CallSid"),
		RecordingURL:    c.PostForm("RecordingUrl"),
		DurationSeconds: duration,
	}
	if ev.CallSID == "" {
		c.Data(http.StatusOK, "application/xml", []byte(staticApologyXML))
		return
	}

	h.renderDocument(c, h.callService.HandleRecordingReady(c.Request.Context(), ev))
}

// HandleStatus handles the status-changed webhook. Acknowledgement only,
// no conversational transition happens here.
func (h *VoiceHandler) HandleStatus(c *gin.Context) {
	duration, _ := strconv.Atoi(c.PostForm("CallDuration"))
	ev := entities.StatusChanged{
		CallSID:         c.PostForm("CallSid"),
		Status:          c.PostForm("CallStatus"),
		DurationSeconds: duration,
	}

	h.callService.HandleStatusChanged(c.Request.Context(), ev)
	c.Status(http.StatusOK)
}

func (h *VoiceHandler) renderDocument(c *gin.Context, doc *twiml.ControlDocument) {
	body, err := doc.Render()
	if err != nil {
		// A document failing its own invariant is a programming error;
		// the caller still gets a well-formed apology.
		h.log.Error().Err(err).Msg("control document render failed")
		body = []byte(staticApologyXML)
	}
	c.Data(http.StatusOK, "application/xml", body)
}
