package gateway

import (
	"encoding/json"
	"strings"

	"github.com/jkh/llm-gateway/pkg/convert"
	"github.com/jkh/llm-gateway/pkg/gwerrors"
)

// rawAnthropicRequest mirrors convert.AnthropicRequest but leaves System
// and each message's Content as raw JSON, since the native Anthropic wire
// format allows either a bare string or an array of blocks in both
// positions. Bare strings are promoted to one-block arrays before any
// other processing runs.
type rawAnthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []rawAnthropicTurn `json:"messages"`
	System      json.RawMessage    `json:"system,omitempty"`
	MaxTokens   int64              `json:"max_tokens"`
	Stream      bool               `json:"stream,omitempty"`
	Temperature json.RawMessage    `json:"temperature,omitempty"`
	TopP        json.RawMessage    `json:"top_p,omitempty"`
	TopK        json.RawMessage    `json:"top_k,omitempty"`
	Tools       json.RawMessage    `json:"tools,omitempty"`
	ToolChoice  json.RawMessage    `json:"tool_choice,omitempty"`
	Stop        json.RawMessage    `json:"stop_sequences,omitempty"`
}

type rawAnthropicTurn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// decodeAnthropicRequest parses an inbound /v1/messages body and promotes
// any bare-string system/content field into the single-element []Block
// shape pkg/shaper and pkg/convert assume, so neither package needs to
// special-case strings itself.
func decodeAnthropicRequest(body []byte, defaultModel string) (*convert.AnthropicRequest, error) {
	var raw rawAnthropicRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, gwerrors.ClientMalformed("body", "malformed JSON body")
	}
	if strings.TrimSpace(raw.Model) == "" {
		raw.Model = defaultModel
	}
	if strings.TrimSpace(raw.Model) == "" {
		return nil, gwerrors.ClientMalformed("model", "model is required")
	}

	req := &convert.AnthropicRequest{
		Model:      raw.Model,
		MaxTokens:  raw.MaxTokens,
		Stream:     raw.Stream,
		Tools:      raw.Tools,
		ToolChoice: raw.ToolChoice,
		Stop:       raw.Stop,
	}
	req.Temperature = jsonFloatPtr(raw.Temperature)
	req.TopP = jsonFloatPtr(raw.TopP)
	req.TopK = jsonIntPtr(raw.TopK)

	sys, err := promoteBlocks(raw.System)
	if err != nil {
		return nil, err
	}
	req.System = sys

	req.Messages = make([]convert.AnthropicMessage, 0, len(raw.Messages))
	for _, t := range raw.Messages {
		content, err := promoteBlocks(t.Content)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, convert.AnthropicMessage{Role: t.Role, Content: content})
	}
	return req, nil
}

// promoteBlocks turns a bare JSON string into a single text block, or
// decodes an already-typed block array as-is.
func promoteBlocks(raw json.RawMessage) ([]convert.Block, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	trimmed := trimLeftSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, gwerrors.ClientMalformed("content", "malformed string content")
		}
		return []convert.Block{{Type: convert.BlockText, Text: s}}, nil
	}
	var blocks []convert.Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, gwerrors.ClientMalformed("content", "malformed content blocks")
	}
	return blocks, nil
}

func trimLeftSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

func jsonFloatPtr(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

func jsonIntPtr(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}
	var i int64
	if err := json.Unmarshal(raw, &i); err != nil {
		return nil
	}
	return &i
}
