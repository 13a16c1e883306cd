package convert

import "encoding/json"

// The structs below mirror the documented Anthropic Messages streaming
// wire JSON closely enough to decode each event's `data:` payload. They
// deliberately don't reuse an SDK's streaming union types: the converter
// needs the raw, not-yet-accumulated partial-JSON deltas that SDK
// streaming helpers collapse away internally, so it operates one layer
// below them.
type sseMessageStart struct {
	Message struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Role  string `json:"role"`
	} `json:"message"`
}

type sseContentBlockStart struct {
	Index        int64 `json:"index"`
	ContentBlock struct {
		Type      string `json:"type"`
		ID        string `json:"id,omitempty"`
		Name      string `json:"name,omitempty"`
		Signature string `json:"signature,omitempty"`
	} `json:"content_block"`
}

type sseContentBlockDelta struct {
	Index int64 `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text,omitempty"`
		PartialJSON string `json:"partial_json,omitempty"`
		Thinking    string `json:"thinking,omitempty"`
		Signature   string `json:"signature,omitempty"`
	} `json:"delta"`
}

type sseContentBlockStop struct {
	Index int64 `json:"index"`
}

type sseMessageDelta struct {
	Delta struct {
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

type sseError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeSSE[T any](data string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(data), &v)
	return v, err
}
