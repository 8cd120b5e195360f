package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"voicedesk/internal/interfaces"
)

// AIServiceClient talks to the conversational-AI collaborator, a separate
// service consumed as a black box. The reply body is returned raw: the
// collaborator answers with plain text, {"response": ...} or
// {"content": ...} depending on its version, and shape normalization is the
// controller's job.
type AIServiceClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     zerolog.Logger
}

func NewAIServiceClient(baseURL, apiKey, model string, timeout time.Duration, log zerolog.Logger) *AIServiceClient {
	return &AIServiceClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type aiWirePayload struct {
	Model     string                     `json:"model,omitempty"`
	TenantID  int                        `json:"tenant_id"`
	SessionID string                     `json:"session_id"`
	Message   string                     `json:"message"`
	Context   interfaces.BusinessContext `json:"context"`
}

func (a *AIServiceClient) Reply(ctx context.Context, req interfaces.AIRequest) (json.RawMessage, error) {
	payload := aiWirePayload{
		Model:     a.model,
		TenantID:  req.TenantID,
		SessionID: req.SessionID,
		Message:   req.Message,
		Context:   req.Context,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal ai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/reply", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build ai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read ai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		a.log.Warn().Int("status", resp.StatusCode).Str("session_id", req.SessionID).Msg("ai collaborator returned non-200")
		return nil, fmt.Errorf("ai collaborator status %d", resp.StatusCode)
	}

	return json.RawMessage(body), nil
}
