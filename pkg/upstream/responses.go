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

// CodexBaseURL is the ChatGPT backend API endpoint the Codex CLI's OAuth
// tokens are scoped to.
const CodexBaseURL = "https://chatgpt.com/backend-api/codex"

// CodexOriginator identifies the gateway to the ChatGPT backend the same
// way the reference Codex CLI does.
const CodexOriginator = "llm-gateway"

// ResponsesDriver signs and sends requests to the ChatGPT/Codex Responses
// API. The wire is always streaming; Invoke runs the stream
// through a ResponsesCollector to produce a single object for clients
// that asked for non-streaming.
type ResponsesDriver struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewResponsesDriver builds a driver pointed at CodexBaseURL.
func NewResponsesDriver() *ResponsesDriver {
	return &ResponsesDriver{BaseURL: CodexBaseURL, HTTPClient: NewHTTPClient()}
}

// CodexAuth carries the per-request Codex OAuth credentials.
type CodexAuth struct {
	AccessToken string
	AccountID   string
}

func (d *ResponsesDriver) newRequest(ctx context.Context, req *convert.ResponsesRequest, auth CodexAuth) (*http.Request, error) {
	req.Store = false
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, gwerrors.Internal("failed to marshal responses request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, gwerrors.Internal("failed to build responses request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	httpReq.Header.Set("ChatGPT-Account-ID", auth.AccountID)
	httpReq.Header.Set("OpenAI-Beta", "responses=experimental")
	httpReq.Header.Set("originator", CodexOriginator)
	httpReq.Header.Set("Accept", "text/event-stream")
	return httpReq, nil
}

// Stream opens the upstream Responses SSE connection and returns the raw
// event iterator — the shape both the ResponsesCollector (collect mode)
// and ResponsesStreamConverter (streaming chat/completions passthrough)
// consume. A non-200 response is folded into the stream itself as a
// single synthetic error frame rather than returned as a Go error.
func (d *ResponsesDriver) Stream(ctx context.Context, req *convert.ResponsesRequest, auth CodexAuth) (*EventStream, error) {
	httpReq, err := d.newRequest(ctx, req, auth)
	if err != nil {
		return nil, err
	}

	resp, err := d.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, gwerrors.UpstreamTransport("responses stream request failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return singleErrorEvent(genericUpstreamErrorMessage(data)), nil
	}
	return NewEventStream(resp.Body), nil
}

// Invoke runs the Responses stream through collect mode: the
// Codex driver always opens a streaming connection upstream, so a client
// that asked for stream:false is served by assembling the stream into
// one ChatCompletionResponse here rather than by a distinct non-streaming
// upstream call.
func (d *ResponsesDriver) Invoke(ctx context.Context, req *convert.ResponsesRequest, auth CodexAuth) (*convert.ChatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	stream, err := d.Stream(ctx, req, auth)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	collector := convert.NewResponsesCollector()
	for {
		ev, ok := stream.Next(ctx)
		if !ok {
			break
		}
		if collector.Feed(ev) {
			break
		}
	}

	if msg := collector.Err(); msg != "" {
		return nil, gwerrors.UpstreamStatus(http.StatusBadGateway, msg)
	}
	result := collector.Result(req.Model)
	return &result, nil
}
