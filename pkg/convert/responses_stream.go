package convert

import "github.com/jkh/llm-gateway/pkg/sse"

// ResponsesStreamConverter translates a Responses API event stream into
// OpenAI chat.completion.chunk deltas, for the case where the inbound
// client asked for chat/completions streaming but the resolved model
// routes through the ChatGPT/Codex Responses driver. Tool-call arguments
// still arrive atomically: response.output_item.done carries the
// complete arguments string in one event, so there is nothing to
// buffer.
type ResponsesStreamConverter struct {
	id     string
	model  string
	oaiIdx int
}

// NewResponsesStreamConverter builds a converter for one request.
func NewResponsesStreamConverter(id, model string) *ResponsesStreamConverter {
	return &ResponsesStreamConverter{id: id, model: model}
}

// Feed applies one decoded Responses API event and returns the OpenAI
// chunks to emit, plus whether the stream has reached a terminal state.
func (s *ResponsesStreamConverter) Feed(ev sse.Event) ([]StreamChunk, bool) {
	switch ev.Event {
	case "response.created":
		return []StreamChunk{s.chunk(StreamDelta{Role: "assistant", Content: ""}, nil)}, false

	case "response.output_text.delta":
		v, err := decodeSSE[respOutputTextDelta](ev.Data)
		if err != nil || v.Delta == "" {
			return nil, false
		}
		return []StreamChunk{s.chunk(StreamDelta{Content: v.Delta}, nil)}, false

	case "response.reasoning_text.delta", "response.reasoning_summary_text.delta":
		v, err := decodeSSE[respReasoningDelta](ev.Data)
		if err != nil || v.Delta == "" {
			return nil, false
		}
		return []StreamChunk{s.chunk(StreamDelta{ReasoningContent: v.Delta}, nil)}, false

	case "response.output_item.done":
		v, err := decodeSSE[respOutputItemDone](ev.Data)
		if err != nil || v.Item.Type != "function_call" {
			return nil, false
		}
		idx := s.oaiIdx
		s.oaiIdx++
		return []StreamChunk{s.chunk(StreamDelta{
			ToolCalls: []StreamToolCallDelta{{
				Index: idx,
				ID:    v.Item.CallID,
				Type:  "function",
				Function: &StreamToolCallFunction{
					Name:      v.Item.Name,
					Arguments: v.Item.Arguments,
				},
			}},
		}, nil)}, false

	case "response.completed":
		reason := "stop"
		if s.oaiIdx > 0 {
			reason = "tool_calls"
		}
		return []StreamChunk{s.chunk(StreamDelta{}, &reason)}, true

	case "response.failed", "error":
		msg, typ := "unknown Responses API error", "upstream_error"
		if v, err := decodeSSE[respFailedOrError](ev.Data); err == nil {
			msg = v.errorMessage()
		}
		return []StreamChunk{{Error: &StreamError{Message: msg, Type: typ}}}, true

	default:
		return nil, false
	}
}

func (s *ResponsesStreamConverter) chunk(delta StreamDelta, finishReason *string) StreamChunk {
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
