package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jkh/llm-gateway/pkg/convert"
	"github.com/jkh/llm-gateway/pkg/gwerrors"
)

// OpenAICompatDriver forwards a request to a user-configured
// OpenAI-compatible endpoint (local providers, third-party Chat
// Completions-compatible hosts). Unlike the Anthropic and Responses
// drivers it does no dialect translation of its own — the request
// already arrived in this dialect, so the driver's only job is signing
// and timeout/error handling.
type OpenAICompatDriver struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewOpenAICompatDriver builds a driver for one configured provider.
func NewOpenAICompatDriver(baseURL, apiKey string) *OpenAICompatDriver {
	return &OpenAICompatDriver{BaseURL: baseURL, APIKey: apiKey, HTTPClient: NewHTTPClient()}
}

func (d *OpenAICompatDriver) newRequest(ctx context.Context, req *convert.ChatCompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, gwerrors.Internal("failed to marshal chat completion request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, gwerrors.Internal("failed to build chat completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if d.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+d.APIKey)
	}
	return httpReq, nil
}

// Invoke sends a non-streaming chat completion request.
func (d *OpenAICompatDriver) Invoke(ctx context.Context, req *convert.ChatCompletionRequest) (*convert.ChatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req.Stream = false
	httpReq, err := d.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := d.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("openai-compatible request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("failed to read openai-compatible response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, gwerrors.UpstreamStatus(resp.StatusCode, genericUpstreamErrorMessage(data))
	}

	var out convert.ChatCompletionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, gwerrors.MalformedUpstream("failed to decode openai-compatible response", err)
	}
	return &out, nil
}

// Stream sends a streaming chat completion request and returns the raw
// SSE event iterator; chunks pass through unmodified since both the
// inbound client and this upstream already speak the same dialect. A
// non-200 response is folded into the stream itself as a single synthetic
// error frame rather than returned as a Go error.
func (d *OpenAICompatDriver) Stream(ctx context.Context, req *convert.ChatCompletionRequest) (*EventStream, error) {
	req.Stream = true
	httpReq, err := d.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := d.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("openai-compatible stream request failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return singleErrorEvent(genericUpstreamErrorMessage(data)), nil
	}
	return NewEventStream(resp.Body), nil
}

func genericUpstreamErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) == 0 {
		return "upstream returned an empty error body"
	}
	return string(body)
}
