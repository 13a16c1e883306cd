package convert

import (
	"github.com/jkh/llm-gateway/pkg/sse"
	"github.com/jkh/llm-gateway/pkg/thinking"
)

// blockState tracks one in-flight content block by its Anthropic stream
// index. Request-scoped: streaming state never lives in a process
// global.
type blockState struct {
	kind         string // "tool_use", "thinking", "redacted_thinking", "text"
	toolOAIIndex int
	toolID       string
	toolName     string
	argsBuf      []byte
	thinkingBuf  []byte
	signature    string
}

// StreamConverter is the Anthropic-SSE→OpenAI-chunks state machine. One
// instance is created per inbound streaming request; it is
// fed whole sse.Event frames already decoded by pkg/sse.Parser from the
// upstream driver's raw byte stream.
type StreamConverter struct {
	cache *thinking.Cache

	id       string
	model    string
	blocks   map[int64]*blockState
	oaiIdx   int
	roleSent bool

	// lastSignedThinking is the most recently completed thinking (or
	// redacted_thinking) block carrying a non-empty signature in the
	// current assistant turn; toolUseIDs accumulates every tool_use id
	// seen since. At message_stop both are used to populate the
	// thinking cache.
	lastSignedThinking *thinking.Block
	toolUseIDs         []string

	done bool
}

// NewStreamConverter builds a converter that persists signed thinking
// into cache (may be nil to disable caching, e.g. in tests).
func NewStreamConverter(cache *thinking.Cache, id, model string) *StreamConverter {
	return &StreamConverter{
		cache:  cache,
		id:     id,
		model:  model,
		blocks: make(map[int64]*blockState),
	}
}

// Feed applies one decoded Anthropic SSE event and returns zero or more
// OpenAI chunks to emit downstream, plus whether the stream has reached
// its terminal state (message_stop or error).
func (s *StreamConverter) Feed(ev sse.Event) ([]StreamChunk, bool) {
	if s.done {
		return nil, true
	}

	switch ev.Event {
	case "message_start":
		if v, err := decodeSSE[sseMessageStart](ev.Data); err == nil {
			if v.Message.ID != "" {
				s.id = v.Message.ID
			}
			if v.Message.Model != "" {
				s.model = v.Message.Model
			}
		}
		s.roleSent = true
		return []StreamChunk{s.chunk(StreamDelta{Role: "assistant", Content: ""}, nil)}, false

	case "content_block_start":
		v, err := decodeSSE[sseContentBlockStart](ev.Data)
		if err != nil {
			return nil, false
		}
		return s.handleBlockStart(v), false

	case "content_block_delta":
		v, err := decodeSSE[sseContentBlockDelta](ev.Data)
		if err != nil {
			return nil, false
		}
		return s.handleBlockDelta(v), false

	case "content_block_stop":
		v, err := decodeSSE[sseContentBlockStop](ev.Data)
		if err != nil {
			return nil, false
		}
		return s.handleBlockStop(v), false

	case "message_delta":
		v, err := decodeSSE[sseMessageDelta](ev.Data)
		if err != nil {
			return nil, false
		}
		if v.Delta.StopReason == "" {
			return nil, false
		}
		reason := mapStopReason(v.Delta.StopReason)
		return []StreamChunk{s.chunk(StreamDelta{}, &reason)}, false

	case "message_stop":
		s.persistThinking()
		s.done = true
		return nil, true

	case "error":
		s.done = true
		msg, typ := "upstream error", "upstream_error"
		if v, err := decodeSSE[sseError](ev.Data); err == nil && v.Error.Message != "" {
			msg, typ = v.Error.Message, v.Error.Type
		}
		return []StreamChunk{{Error: &StreamError{Message: msg, Type: typ}}}, true

	default:
		return nil, false
	}
}

func (s *StreamConverter) handleBlockStart(v sseContentBlockStart) []StreamChunk {
	st := &blockState{kind: v.ContentBlock.Type}

	switch v.ContentBlock.Type {
	case "tool_use":
		st.toolID = v.ContentBlock.ID
		st.toolName = v.ContentBlock.Name
		st.toolOAIIndex = s.oaiIdx
		s.oaiIdx++
		s.blocks[v.Index] = st
		s.toolUseIDs = append(s.toolUseIDs, st.toolID)

		return []StreamChunk{s.chunk(StreamDelta{
			ToolCalls: []StreamToolCallDelta{{
				Index: st.toolOAIIndex,
				ID:    st.toolID,
				Type:  "function",
				Function: &StreamToolCallFunction{
					Name:      st.toolName,
					Arguments: "",
				},
			}},
		}, nil)}

	case "thinking", "redacted_thinking":
		if v.ContentBlock.Signature != "" {
			st.signature = v.ContentBlock.Signature
		}
		s.blocks[v.Index] = st
		return nil

	default:
		s.blocks[v.Index] = st
		return nil
	}
}

func (s *StreamConverter) handleBlockDelta(v sseContentBlockDelta) []StreamChunk {
	st := s.blocks[v.Index]
	if st == nil {
		return nil
	}

	switch v.Delta.Type {
	case "text_delta":
		if v.Delta.Text == "" {
			return nil
		}
		return []StreamChunk{s.chunk(StreamDelta{Content: v.Delta.Text}, nil)}

	case "input_json_delta":
		// Buffered, never emitted mid-flight: tool-call arguments must
		// reach the client as one atomic string.
		st.argsBuf = append(st.argsBuf, v.Delta.PartialJSON...)
		return nil

	case "thinking_delta":
		if v.Delta.Thinking == "" {
			return nil
		}
		st.thinkingBuf = append(st.thinkingBuf, v.Delta.Thinking...)
		return []StreamChunk{s.chunk(StreamDelta{ReasoningContent: v.Delta.Thinking}, nil)}

	case "signature_delta":
		st.signature += v.Delta.Signature
		return nil

	default:
		return nil
	}
}

func (s *StreamConverter) handleBlockStop(v sseContentBlockStop) []StreamChunk {
	st := s.blocks[v.Index]
	if st == nil {
		return nil
	}
	delete(s.blocks, v.Index)

	switch st.kind {
	case "tool_use":
		args := "{}"
		if len(st.argsBuf) > 0 {
			args = string(st.argsBuf)
		}
		return []StreamChunk{s.chunk(StreamDelta{
			ToolCalls: []StreamToolCallDelta{{
				Index: st.toolOAIIndex,
				Function: &StreamToolCallFunction{
					Arguments: args,
				},
			}},
		}, nil)}

	case "thinking", "redacted_thinking":
		if st.signature != "" {
			s.lastSignedThinking = &thinking.Block{
				Type:      st.kind,
				Thinking:  string(st.thinkingBuf),
				Signature: st.signature,
			}
		}
		return nil

	default:
		return nil
	}
}

// persistThinking writes lastSignedThinking (if any) into the cache
// under every tool_use id observed in this turn, so the next turn's
// request shaper can re-prepend it.
func (s *StreamConverter) persistThinking() {
	if s.cache == nil || s.lastSignedThinking == nil {
		return
	}
	for _, id := range s.toolUseIDs {
		s.cache.Put(id, *s.lastSignedThinking)
	}
}

func (s *StreamConverter) chunk(delta StreamDelta, finishReason *string) StreamChunk {
	return StreamChunk{
		ID:     s.id,
		Object: "chat.completion.chunk",
		Model:  s.model,
		Choices: []StreamChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finishReason,
		}},
	}
}
