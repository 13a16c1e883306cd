package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkh/llm-gateway/pkg/convert"
)

func codexStreamBody() string {
	return "event: response.created\ndata: {}\n\n" +
		"event: response.output_text.delta\ndata: {\"delta\":\"hel\"}\n\n" +
		"event: response.output_text.delta\ndata: {\"delta\":\"lo\"}\n\n" +
		"event: response.output_item.done\ndata: {\"item\":{\"type\":\"function_call\",\"call_id\":\"call_1\",\"name\":\"lookup\",\"arguments\":\"{\\\"q\\\":1}\"}}\n\n" +
		"event: response.completed\ndata: {\"response\":{\"id\":\"resp_1\",\"usage\":{\"input_tokens\":12,\"output_tokens\":7}}}\n\n"
}

func TestResponsesInvokeCollectsStreamIntoOneObject(t *testing.T) {
	var gotReq convert.ResponsesRequest
	var gotAccount string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccount = r.Header.Get("ChatGPT-Account-ID")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(codexStreamBody()))
	}))
	defer srv.Close()

	d := &ResponsesDriver{BaseURL: srv.URL, HTTPClient: srv.Client()}
	resp, err := d.Invoke(context.Background(), &convert.ResponsesRequest{Model: "gpt-5-codex"}, CodexAuth{AccessToken: "tok", AccountID: "acct_1"})
	require.NoError(t, err)

	// The wire is always streaming with store:false, no matter what the
	// inbound client asked for.
	assert.True(t, gotReq.Stream)
	assert.False(t, gotReq.Store)
	assert.Equal(t, "acct_1", gotAccount)

	assert.Equal(t, "resp_1", resp.ID)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)
	assert.Equal(t, "tool_calls", resp.Choices[0].FinishReason)
	require.Len(t, resp.Choices[0].Message.ToolCalls, 1)
	assert.Equal(t, `{"q":1}`, resp.Choices[0].Message.ToolCalls[0].Function.Arguments)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 7, resp.Usage.CompletionTokens)
	assert.Equal(t, 19, resp.Usage.TotalTokens)
}

func TestResponsesStreamNon200YieldsSyntheticErrorFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "no active subscription"}}`))
	}))
	defer srv.Close()

	d := &ResponsesDriver{BaseURL: srv.URL, HTTPClient: srv.Client()}
	stream, err := d.Stream(context.Background(), &convert.ResponsesRequest{Model: "gpt-5-codex"}, CodexAuth{AccessToken: "tok"})
	require.NoError(t, err)
	defer stream.Close()

	ev, ok := stream.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, "error", ev.Event)
	assert.Contains(t, ev.Data, "no active subscription")
}

func TestResponsesInvokeFailedStreamSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: response.failed\ndata: {\"response\":{\"error\":{\"message\":\"model capacity\"}}}\n\n"))
	}))
	defer srv.Close()

	d := &ResponsesDriver{BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, err := d.Invoke(context.Background(), &convert.ResponsesRequest{Model: "gpt-5-codex"}, CodexAuth{AccessToken: "tok"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model capacity")
}
