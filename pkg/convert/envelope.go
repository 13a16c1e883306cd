// Package convert implements the dialect converters: pure
// functions translating requests, responses, and streams between OpenAI
// Chat Completions, Anthropic Messages, and OpenAI Responses, via a
// normalized intermediate envelope.
package convert

import "encoding/json"

// Role is a normalized turn role. The envelope only ever carries user and
// assistant turns — system content is extracted separately.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType tags the variant a Block carries.
type BlockType string

const (
	BlockText             BlockType = "text"
	BlockImage            BlockType = "image"
	BlockToolUse          BlockType = "tool_use"
	BlockToolResult       BlockType = "tool_result"
	BlockThinking         BlockType = "thinking"
	BlockRedactedThinking BlockType = "redacted_thinking"
)

// ImageSource is either a base64-inlined image or a plain URL reference.
type ImageSource struct {
	Type      string `json:"type"` // "base64" | "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Block is one content block in the normalized envelope. Exactly the
// fields relevant to Type are populated: tagged variants at the
// boundary rather than one shared union struct across all three
// dialects.
type Block struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// tool_use
	ToolUseID string          `json:"id,omitempty"`
	ToolName  string          `json:"name,omitempty"`
	ToolInput json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolResultID string `json:"tool_use_id,omitempty"`
	Content      string `json:"content,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
	Status       string `json:"status,omitempty"`

	// thinking / redacted_thinking
	Thinking  string `json:"thinking,omitempty"`
	Data      string `json:"data,omitempty"`
	Signature string `json:"signature,omitempty"`

	// CacheControl marks a prompt-cache breakpoint on this block.
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// CacheControl is the ephemeral prompt-cache marker.
type CacheControl struct {
	Type string `json:"type"` // always "ephemeral"
}

// Turn is one normalized conversation turn.
type Turn struct {
	Role    Role
	Content []Block
}

// Envelope is the normalized intermediate form: system blocks plus a
// sequence of alternating user/assistant turns, invariants enforced by
// FromOpenAI's post-conditions.
type Envelope struct {
	System []Block
	Turns  []Turn
}

// ToolUseIDs returns the tool_use ids carried by an assistant turn, in
// order — used by the request shaper to look up cached
// signed thinking for re-prepending.
func (t Turn) ToolUseIDs() []string { return ToolUseIDsOf(t.Content) }

// HasToolUse reports whether the turn contains any tool_use block.
func (t Turn) HasToolUse() bool { return BlocksHaveToolUse(t.Content) }

// StartsWithThinking reports whether the turn's first block is a
// thinking or redacted_thinking block.
func (t Turn) StartsWithThinking() bool { return BlocksStartWithThinking(t.Content) }

// ToolUseIDsOf returns the tool_use ids carried by a content-block slice,
// in order. Operates on []Block directly (rather than only Turn) so the
// request shaper can apply it to an already-built
// AnthropicMessage's Content without reconstructing a Turn.
func ToolUseIDsOf(blocks []Block) []string {
	var ids []string
	for _, b := range blocks {
		if b.Type == BlockToolUse && b.ToolUseID != "" {
			ids = append(ids, b.ToolUseID)
		}
	}
	return ids
}

// BlocksHaveToolUse reports whether blocks contains any tool_use block.
func BlocksHaveToolUse(blocks []Block) bool {
	for _, b := range blocks {
		if b.Type == BlockToolUse {
			return true
		}
	}
	return false
}

// BlocksStartWithThinking reports whether the first block is a thinking
// or redacted_thinking block.
func BlocksStartWithThinking(blocks []Block) bool {
	if len(blocks) == 0 {
		return false
	}
	return blocks[0].Type == BlockThinking || blocks[0].Type == BlockRedactedThinking
}
