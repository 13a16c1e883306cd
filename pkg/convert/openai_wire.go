package convert

import "encoding/json"

// ChatMessage is the wire shape of one OpenAI Chat Completions message as
// sent by an inbound client. Content is `any` on the wire (string or an
// array of typed parts) so it is decoded lazily via RawContent.
type ChatMessage struct {
	Role       string          `json:"role"`
	RawContent json.RawMessage `json:"content"`
	Name       string          `json:"name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
}

// ToolCall is an assistant-emitted tool_calls[] entry.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolCallFunc `json:"function"`
}

// ToolCallFunc is the function payload of a ToolCall.
type ToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ContentPart is one element of a multi-part message content array
// (text or image_url).
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL is the `image_url` part shape; URL may carry a data: URI.
type ImageURL struct {
	URL string `json:"url"`
}

// ChatCompletionRequest is the inbound shape of POST /v1/chat/completions.
type ChatCompletionRequest struct {
	Model           string          `json:"model"`
	Messages        []ChatMessage   `json:"messages"`
	Stream          bool            `json:"stream,omitempty"`
	Temperature     json.RawMessage `json:"temperature,omitempty"`
	TopP            json.RawMessage `json:"top_p,omitempty"`
	TopK            json.RawMessage `json:"top_k,omitempty"`
	MaxTokens       int64           `json:"max_tokens,omitempty"`
	Tools           json.RawMessage `json:"tools,omitempty"`
	ToolChoice      json.RawMessage `json:"tool_choice,omitempty"`
	Stop            json.RawMessage `json:"stop,omitempty"`
	ReasoningEffort string          `json:"reasoning_effort,omitempty"`
}

// ChatCompletionResponse is the outbound non-streaming shape.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// ChatChoice is one non-streaming completion choice.
type ChatChoice struct {
	Index        int           `json:"index"`
	Message      ChatChoiceMsg `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChatChoiceMsg is the assistant message inside a non-streaming choice.
type ChatChoiceMsg struct {
	Role             string          `json:"role"`
	Content          string          `json:"content,omitempty"`
	ReasoningContent string          `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCall      `json:"tool_calls,omitempty"`
	ThinkingBlocks   []ThinkingBlock `json:"thinking_blocks,omitempty"`
}

// ThinkingBlock is the outbound shape preserving a signature.
type ThinkingBlock struct {
	Type      string `json:"type"`
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// ChatUsage is the outbound usage block, including the reasoning-tokens
// detail derived from thinking text length.
type ChatUsage struct {
	PromptTokens     int                    `json:"prompt_tokens"`
	CompletionTokens int                    `json:"completion_tokens"`
	TotalTokens      int                    `json:"total_tokens"`
	CompletionDetail *CompletionTokenDetail `json:"completion_tokens_details,omitempty"`
}

// CompletionTokenDetail carries the reasoning_tokens estimate.
type CompletionTokenDetail struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// StreamChunk is one OpenAI chat.completion.chunk SSE payload. When Error
// is set (a mid-stream upstream failure), the other fields are left zero
// and omitted so the frame is exactly `{"error": {...}}`.
type StreamChunk struct {
	ID      string         `json:"id,omitempty"`
	Object  string         `json:"object,omitempty"`
	Model   string         `json:"model,omitempty"`
	Choices []StreamChoice `json:"choices,omitempty"`
	Error   *StreamError   `json:"error,omitempty"`
}

// StreamError is the `{error: {message, type}}` frame emitted in place of
// a normal chunk when the upstream stream fails mid-flight.
type StreamError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// StreamChoice is the single choice carried by a StreamChunk.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// StreamDelta is the incremental delta of a StreamChoice.
type StreamDelta struct {
	Role             string                `json:"role,omitempty"`
	Content          string                `json:"content,omitempty"`
	ReasoningContent string                `json:"reasoning_content,omitempty"`
	ToolCalls        []StreamToolCallDelta `json:"tool_calls,omitempty"`
}

// StreamToolCallDelta is one tool_calls[] entry of a streamed delta.
// Function.Arguments is either "" (the allocation chunk) or the complete
// JSON string (the block-stop chunk) — never a partial fragment.
type StreamToolCallDelta struct {
	Index    int                     `json:"index"`
	ID       string                  `json:"id,omitempty"`
	Type     string                  `json:"type,omitempty"`
	Function *StreamToolCallFunction `json:"function,omitempty"`
}

// StreamToolCallFunction is the function payload of a streamed tool-call delta.
type StreamToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}
