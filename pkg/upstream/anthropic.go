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

// AnthropicBaseURL is the Anthropic Messages API endpoint.
const AnthropicBaseURL = "https://api.anthropic.com"

// The identification headers below must match what the official CLI
// sends — upstream's subscription-auth check inspects them alongside the
// spoof system message.
const (
	anthropicUserAgent = "claude-cli/1.0.83 (external, cli)"
	anthropicXApp      = "cli"
)

var anthropicSDKHeaders = map[string]string{
	"X-Stainless-Lang":            "js",
	"X-Stainless-Package-Version": "0.55.1",
	"X-Stainless-Runtime":         "node",
	"X-Stainless-Retry-Count":     "0",
}

// AnthropicDriver signs and sends requests to the Anthropic Messages API,
// the native dialect the rest of the gateway's shaping pipeline already
// targets.
type AnthropicDriver struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewAnthropicDriver builds a driver pointed at AnthropicBaseURL.
func NewAnthropicDriver() *AnthropicDriver {
	return &AnthropicDriver{BaseURL: AnthropicBaseURL, HTTPClient: NewHTTPClient()}
}

// AuthHeader carries the per-request bearer token and beta-feature set a
// caller (the gateway handler, after consulting pkg/oauth) attaches to an
// outbound Anthropic call.
type AuthHeader struct {
	AccessToken string
	Betas       []string
}

func (d *AnthropicDriver) newRequest(ctx context.Context, req *convert.AnthropicRequest, auth AuthHeader) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, gwerrors.Internal("failed to marshal anthropic request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, gwerrors.Internal("failed to build anthropic request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("User-Agent", anthropicUserAgent)
	httpReq.Header.Set("x-app", anthropicXApp)
	for k, v := range anthropicSDKHeaders {
		httpReq.Header.Set(k, v)
	}
	if len(auth.Betas) > 0 {
		httpReq.Header.Set("anthropic-beta", joinCommaList(auth.Betas))
	}
	return httpReq, nil
}

// Invoke sends a non-streaming request and decodes the response.
func (d *AnthropicDriver) Invoke(ctx context.Context, req *convert.AnthropicRequest, auth AuthHeader) (*convert.AnthropicResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req.Stream = false
	httpReq, err := d.newRequest(ctx, req, auth)
	if err != nil {
		return nil, err
	}

	resp, err := d.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("anthropic request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("failed to read anthropic response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, gwerrors.UpstreamStatus(resp.StatusCode, upstreamErrorMessage(data))
	}

	var out convert.AnthropicResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, gwerrors.MalformedUpstream("failed to decode anthropic response", err)
	}
	return &out, nil
}

// Stream sends a streaming request and returns an EventStream of raw
// Anthropic SSE frames. A non-200 response is folded into the stream
// itself as a single synthetic error frame rather than returned as
// a Go error, so callers always get an EventStream to range over; Stream
// only errors when the request could not be built or sent at all.
func (d *AnthropicDriver) Stream(ctx context.Context, req *convert.AnthropicRequest, auth AuthHeader) (*EventStream, error) {
	req.Stream = true
	httpReq, err := d.newRequest(ctx, req, auth)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := d.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("anthropic stream request failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return singleErrorEvent(upstreamErrorMessage(data)), nil
	}

	return NewEventStream(resp.Body), nil
}

func upstreamErrorMessage(body []byte) string {
	var parsed convert.AnthropicErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) == 0 {
		return "upstream returned an empty error body"
	}
	return string(body)
}

func joinCommaList(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	return out
}
