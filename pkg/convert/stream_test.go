package convert

import (
	"testing"

	"github.com/jkh/llm-gateway/pkg/sse"
	"github.com/jkh/llm-gateway/pkg/thinking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(eventType, data string) sse.Event {
	return sse.Event{Event: eventType, Data: data}
}

// TestToolCallArgumentsArriveAtomically: a tool_use block whose
// arguments stream in as several
// input_json_delta fragments must surface downstream as exactly one
// chunk carrying the complete JSON string, never a partial prefix.
func TestToolCallArgumentsArriveAtomically(t *testing.T) {
	cache := thinking.New()
	conv := NewStreamConverter(cache, "msg_1", "claude-sonnet-4-5-20250929")

	var allChunks []StreamChunk
	feed := func(eventType, data string) {
		chunks, _ := conv.Feed(ev(eventType, data))
		allChunks = append(allChunks, chunks...)
	}

	feed("message_start", `{"message":{"id":"msg_1","model":"claude-sonnet-4-5-20250929"}}`)
	feed("content_block_start", `{"index":0,"content_block":{"type":"thinking"}}`)
	feed("content_block_delta", `{"index":0,"delta":{"type":"thinking_delta","thinking":"let me check"}}`)
	feed("content_block_delta", `{"index":0,"delta":{"type":"signature_delta","signature":"sig_abc"}}`)
	feed("content_block_stop", `{"index":0}`)
	feed("content_block_start", `{"index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather"}}`)
	feed("content_block_delta", `{"index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\""}}`)
	feed("content_block_delta", `{"index":1,"delta":{"type":"input_json_delta","partial_json":":\"Berlin\"}"}}`)
	feed("content_block_stop", `{"index":1}`)
	feed("message_delta", `{"delta":{"stop_reason":"tool_use"}}`)
	feed("message_stop", ``)

	var argChunks []string
	for _, c := range allChunks {
		for _, tc := range c.Choices[0].Delta.ToolCalls {
			if tc.Function != nil && tc.Function.Arguments != "" {
				argChunks = append(argChunks, tc.Function.Arguments)
			}
		}
	}
	require.Len(t, argChunks, 1)
	assert.Equal(t, `{"city":"Berlin"}`, argChunks[0])

	block, ok := cache.Get("toolu_1")
	require.True(t, ok)
	assert.Equal(t, "sig_abc", block.Signature)
	assert.Equal(t, "let me check", block.Thinking)
}

func TestStreamConverterTextDeltaPassesThroughUnbuffered(t *testing.T) {
	conv := NewStreamConverter(nil, "msg_2", "m")
	chunks, _ := conv.Feed(ev("content_block_start", `{"index":0,"content_block":{"type":"text"}}`))
	assert.Empty(t, chunks)

	chunks, _ = conv.Feed(ev("content_block_delta", `{"index":0,"delta":{"type":"text_delta","text":"pong"}}`))
	require.Len(t, chunks, 1)
	assert.Equal(t, "pong", chunks[0].Choices[0].Delta.Content)
}

func TestStreamConverterEndsOnMessageStopAndError(t *testing.T) {
	conv := NewStreamConverter(nil, "m", "m")
	_, done := conv.Feed(ev("message_stop", ``))
	assert.True(t, done)

	conv2 := NewStreamConverter(nil, "m", "m")
	chunks2, done2 := conv2.Feed(ev("error", `{"error":{"type":"overloaded_error","message":"boom"}}`))
	assert.True(t, done2)
	require.Len(t, chunks2, 1)
	require.NotNil(t, chunks2[0].Error)
	assert.Equal(t, "overloaded_error", chunks2[0].Error.Type)
	assert.Equal(t, "boom", chunks2[0].Error.Message)
}

func TestStreamConverterErrorEventWithMalformedPayloadStillEmitsErrorChunk(t *testing.T) {
	conv := NewStreamConverter(nil, "m", "m")
	chunks, done := conv.Feed(ev("error", `not json`))
	assert.True(t, done)
	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].Error)
	assert.NotEmpty(t, chunks[0].Error.Message)
}

func TestStreamConverterCacheNotWrittenWithoutSignature(t *testing.T) {
	cache := thinking.New()
	conv := NewStreamConverter(cache, "m", "m")
	conv.Feed(ev("content_block_start", `{"index":0,"content_block":{"type":"thinking"}}`))
	conv.Feed(ev("content_block_delta", `{"index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`))
	conv.Feed(ev("content_block_stop", `{"index":0}`))
	conv.Feed(ev("content_block_start", `{"index":1,"content_block":{"type":"tool_use","id":"toolu_9","name":"f"}}`))
	conv.Feed(ev("content_block_stop", `{"index":1}`))
	conv.Feed(ev("message_stop", ``))

	_, ok := cache.Get("toolu_9")
	assert.False(t, ok)
}
