package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponsesStreamConverterFailedEventEmitsErrorChunk(t *testing.T) {
	conv := NewResponsesStreamConverter("resp_1", "gpt-5-codex")
	chunks, done := conv.Feed(ev("response.failed", `{"response":{"error":{"message":"rate limited"}}}`))
	assert.True(t, done)
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Error)
	assert.Equal(t, "rate limited", chunks[0].Error.Message)
}

func TestResponsesStreamConverterErrorEventEmitsErrorChunk(t *testing.T) {
	conv := NewResponsesStreamConverter("resp_1", "gpt-5-codex")
	chunks, done := conv.Feed(ev("error", `{"message":"connection reset"}`))
	assert.True(t, done)
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Error)
	assert.Equal(t, "connection reset", chunks[0].Error.Message)
}

func TestResponsesStreamConverterToolCallAndCompletion(t *testing.T) {
	conv := NewResponsesStreamConverter("resp_1", "gpt-5-codex")
	chunks, done := conv.Feed(ev("response.output_item.done", `{"item":{"type":"function_call","call_id":"call_1","name":"get_weather","arguments":"{\"city\":\"Berlin\"}"}}`))
	assert.False(t, done)
	require.Len(t, chunks, 1)
	assert.Equal(t, "call_1", chunks[0].Choices[0].Delta.ToolCalls[0].ID)

	chunks, done = conv.Feed(ev("response.completed", `{"response":{"id":"resp_1"}}`))
	assert.True(t, done)
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Choices[0].FinishReason)
	assert.Equal(t, "tool_calls", *chunks[0].Choices[0].FinishReason)
}
