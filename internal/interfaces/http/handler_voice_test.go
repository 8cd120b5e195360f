package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"voicedesk/internal/entities"
	"voicedesk/internal/infrastructure"
	"voicedesk/internal/usecases"
)

type nilConfigSource struct{}

func (nilConfigSource) GetByCallee(_ context.Context, _ string) (*entities.TenantCallConfig, error) {
	return nil, nil
}

// unmappedCallService only ever reaches the config lookup, so the other
// collaborators may stay nil.
func unmappedCallService() *usecases.CallService {
	return usecases.NewCallService(usecases.CallServiceDeps{
		Configs:      nilConfigSource{},
		RecordAction: "/voice/recording",
		Logger:       zerolog.Nop(),
	})
}

func voiceRouter(limiter *infrastructure.CallRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewVoiceHandler(unmappedCallService(), limiter, zerolog.Nop())
	r := gin.New()
	r.POST("/voice/incoming", h.HandleIncoming)
	r.POST("/voice/status", h.HandleStatus)
	return r
}

func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIncomingWebhookAlwaysAnswers200XML(t *testing.T) {
	r := voiceRouter(nil)

	w := postForm(t, r, "/voice/incoming", url.Values{
		"CallSid": {"CA1"},
		"From":    {"+34600111222"},
		"To":      {"+34910000000"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "<Hangup") {
		t.Errorf("unmapped number must yield a spoken hangup document:\n%s", body)
	}
}

func TestIncomingWebhookWithoutCallSid(t *testing.T) {
	r := voiceRouter(nil)

	w := postForm(t, r, "/voice/incoming", url.Values{"From": {"+34600111222"}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Hangup") {
		t.Errorf("malformed webhook must still answer a valid document:\n%s", w.Body.String())
	}
}

func TestIncomingWebhookThrottlesRepeatCaller(t *testing.T) {
	limiter := infrastructure.NewCallRateLimiter(rate.Every(time.Hour), 1)
	r := voiceRouter(limiter)

	form := url.Values{
		"CallSid": {"CA1"},
		"From":    {"+34600111222"},
		"To":      {"+34910000000"},
	}
	postForm(t, r, "/voice/incoming", form)
	w := postForm(t, r, "/voice/incoming", form)

	if w.Code != http.StatusOK {
		t.Fatalf("throttled caller must still get 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "no podemos atender") || !strings.Contains(body, "<Hangup") {
		t.Errorf("expected spoken throttle apology with hangup:\n%s", body)
	}
}

func TestStatusWebhookAcknowledges(t *testing.T) {
	r := voiceRouter(nil)

	w := postForm(t, r, "/voice/status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"ringing"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
