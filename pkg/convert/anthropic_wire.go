package convert

import "encoding/json"

// AnthropicRequest is the wire shape of the outbound POST /v1/messages
// body. A dedicated struct rather than an SDK param type: the request
// shaper mutates this shape field-by-field, and the prompt-cache
// breakpoint step edits the raw Tools JSON in place via gjson/sjson — a
// plain struct that round-trips predictably through encoding/json is
// what those passes need.
type AnthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []AnthropicMessage `json:"messages"`
	System      []Block            `json:"system,omitempty"`
	MaxTokens   int64              `json:"max_tokens"`
	Stream      bool               `json:"stream,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	TopP        *float64           `json:"top_p,omitempty"`
	TopK        *int64             `json:"top_k,omitempty"`
	Tools       json.RawMessage    `json:"tools,omitempty"`
	ToolChoice  json.RawMessage    `json:"tool_choice,omitempty"`
	Stop        json.RawMessage    `json:"stop_sequences,omitempty"`
	Thinking    *ThinkingConfig    `json:"thinking,omitempty"`
}

// ThinkingConfig is the outbound `thinking` parameter.
type ThinkingConfig struct {
	Type         string `json:"type"` // "enabled"
	BudgetTokens int64  `json:"budget_tokens"`
}

// AnthropicMessage is one message in the outbound request's `messages`
// array.
type AnthropicMessage struct {
	Role    string  `json:"role"`
	Content []Block `json:"content"`
}

// AnthropicResponse is the non-streaming /v1/messages response shape.
type AnthropicResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Role       string         `json:"role"`
	Content    []Block        `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      AnthropicUsage `json:"usage"`
}

// AnthropicUsage is the non-streaming response's usage block.
type AnthropicUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens,omitempty"`
}

// AnthropicErrorBody is the envelope Anthropic sends for non-2xx
// responses, reshaped for the client dialect at the gateway boundary.
type AnthropicErrorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
