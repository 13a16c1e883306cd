package convert

import (
	"strings"

	"github.com/jkh/llm-gateway/pkg/sse"
)

// ResponsesCollector assembles a Responses-API stream into one
// non-streaming ChatCompletionResponse (collect mode): the Codex
// driver always opens a streaming upstream connection, so when the
// inbound client asked for stream:false the driver runs the stream
// through this collector instead of forwarding chunks.
type ResponsesCollector struct {
	responseID string
	textBuf    strings.Builder
	reasonBuf  strings.Builder
	toolCalls  []ToolCall
	inputToks  int64
	outputToks int64
	errMessage string
}

// NewResponsesCollector builds an empty collector.
func NewResponsesCollector() *ResponsesCollector {
	return &ResponsesCollector{}
}

// Feed applies one decoded Responses API SSE event. Returns true once the
// stream has reached a terminal state (response.completed, failed, or
// error).
func (c *ResponsesCollector) Feed(ev sse.Event) bool {
	switch ev.Event {
	case "response.output_text.delta":
		if v, err := decodeSSE[respOutputTextDelta](ev.Data); err == nil {
			c.textBuf.WriteString(v.Delta)
		}
		return false

	case "response.reasoning_text.delta", "response.reasoning_summary_text.delta":
		if v, err := decodeSSE[respReasoningDelta](ev.Data); err == nil {
			c.reasonBuf.WriteString(v.Delta)
		}
		return false

	case "response.output_item.done":
		v, err := decodeSSE[respOutputItemDone](ev.Data)
		if err != nil {
			return false
		}
		if v.Item.Type == "function_call" {
			c.toolCalls = append(c.toolCalls, ToolCall{
				ID:   v.Item.CallID,
				Type: "function",
				Function: ToolCallFunc{
					Name:      v.Item.Name,
					Arguments: v.Item.Arguments,
				},
			})
		}
		return false

	case "response.completed":
		v, err := decodeSSE[respCompleted](ev.Data)
		if err == nil {
			c.responseID = v.Response.ID
			c.inputToks = v.Response.Usage.InputTokens
			c.outputToks = v.Response.Usage.OutputTokens
		}
		return true

	case "response.failed", "error":
		if v, err := decodeSSE[respFailedOrError](ev.Data); err == nil {
			c.errMessage = v.errorMessage()
		} else {
			c.errMessage = "unknown Responses API error"
		}
		return true

	default:
		return false
	}
}

// Err returns the collected error message, if the stream ended via
// response.failed or error rather than response.completed.
func (c *ResponsesCollector) Err() string {
	return c.errMessage
}

// Result builds the final non-streaming chat-completion response from
// everything collected so far.
func (c *ResponsesCollector) Result(model string) ChatCompletionResponse {
	msg := ChatChoiceMsg{
		Role:             "assistant",
		Content:          c.textBuf.String(),
		ReasoningContent: c.reasonBuf.String(),
		ToolCalls:        c.toolCalls,
	}

	finish := "stop"
	if len(c.toolCalls) > 0 {
		finish = "tool_calls"
	}

	usage := ChatUsage{
		PromptTokens:     int(c.inputToks),
		CompletionTokens: int(c.outputToks),
		TotalTokens:      int(c.inputToks + c.outputToks),
	}
	if c.reasonBuf.Len() > 0 {
		usage.CompletionDetail = &CompletionTokenDetail{ReasoningTokens: c.reasonBuf.Len() / 4}
	}

	return ChatCompletionResponse{
		ID:      c.responseID,
		Object:  "chat.completion",
		Model:   model,
		Choices: []ChatChoice{{Index: 0, Message: msg, FinishReason: finish}},
		Usage:   usage,
	}
}
