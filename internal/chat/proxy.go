// Package chat proxies chatbot requests to an external chat-completions
// service. The proxy touches no store state; its failures are isolated from
// the ledger.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gobank/gobank/internal/apperr"
)

var (
	// ErrNotConfigured is returned when no API credential is set.
	ErrNotConfigured = apperr.New(apperr.KindInternal, "AI service not configured")

	// ErrUpstream covers transport-level failures reaching the service.
	ErrUpstream = apperr.New(apperr.KindUpstream, "failed to connect to AI service")
)

// Message is a single chat turn forwarded to the model provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Proxy forwards chat requests to an OpenAI-style completions endpoint.
type Proxy struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewProxy builds a chat proxy. An empty apiKey leaves the proxy
// unconfigured; Complete then fails without any network call.
func NewProxy(apiKey, url, model string) *Proxy {
	return &Proxy{
		apiKey: apiKey,
		url:    url,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Complete forwards the messages upstream and returns the raw response
// status and body for passthrough.
func (p *Proxy) Complete(ctx context.Context, messages []Message) (int, []byte, error) {
	if p.apiKey == "" {
		return 0, nil, ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]any{
		"model":    p.model,
		"messages": messages,
		"stream":   false,
	})
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, ErrUpstream
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, ErrUpstream
	}
	return resp.StatusCode, body, nil
}
