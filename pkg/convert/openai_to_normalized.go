package convert

import (
	"encoding/json"
	"strings"
)

// roleClass groups the five OpenAI wire roles into the two normalized
// turn roles: system is extracted separately; user/tool/function
// collapse into user turns; assistant stays assistant.
func roleClass(role string) (Role, bool) {
	switch role {
	case "system":
		return "", false
	case "user", "tool", "function":
		return RoleUser, true
	case "assistant":
		return RoleAssistant, true
	default:
		return RoleUser, true
	}
}

// FromOpenAI converts an inbound OpenAI Chat Completions messages array
// into the normalized Envelope.
func FromOpenAI(messages []ChatMessage) Envelope {
	var env Envelope

	for _, msg := range messages {
		if msg.Role == "system" {
			env.System = append(env.System, systemBlocksFromMessage(msg)...)
			continue
		}

		blocks := blocksFromMessage(msg)
		class, ok := roleClass(msg.Role)
		if !ok {
			continue
		}

		if n := len(env.Turns); n > 0 && env.Turns[n-1].Role == class {
			env.Turns[n-1].Content = append(env.Turns[n-1].Content, blocks...)
			continue
		}
		env.Turns = append(env.Turns, Turn{Role: class, Content: blocks})
	}

	ensureFirstTurnUser(&env)
	stripTrailingAssistantWhitespace(&env)
	return env
}

// systemBlocksFromMessage turns one system message into one-or-more text
// blocks, handling both the string and multi-part content shapes.
func systemBlocksFromMessage(msg ChatMessage) []Block {
	if text, ok := decodeStringContent(msg.RawContent); ok {
		if text == "" {
			return nil
		}
		return []Block{{Type: BlockText, Text: text}}
	}
	parts := decodePartsContent(msg.RawContent)
	var blocks []Block
	for _, p := range parts {
		if p.Type == "text" || p.Type == "" {
			blocks = append(blocks, Block{Type: BlockText, Text: p.Text})
		}
	}
	return blocks
}

// blocksFromMessage converts one non-system message's content (and, for
// assistant messages, its tool_calls) into normalized content blocks.
func blocksFromMessage(msg ChatMessage) []Block {
	var blocks []Block

	switch msg.Role {
	case "tool":
		blocks = append(blocks, Block{
			Type:         BlockToolResult,
			ToolResultID: msg.ToolCallID,
			Content:      contentAsString(msg.RawContent),
		})
		return blocks

	case "function":
		blocks = append(blocks, Block{
			Type:         BlockToolResult,
			ToolResultID: "func_" + msg.Name,
			Content:      contentAsString(msg.RawContent),
		})
		return blocks
	}

	if text, ok := decodeStringContent(msg.RawContent); ok {
		if text != "" {
			blocks = append(blocks, Block{Type: BlockText, Text: text})
		}
	} else {
		for _, part := range decodePartsContent(msg.RawContent) {
			blocks = append(blocks, blockFromPart(part))
		}
	}

	for _, tc := range msg.ToolCalls {
		input := json.RawMessage("{}")
		if tc.Function.Arguments != "" {
			var probe map[string]any
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &probe); err == nil {
				input = json.RawMessage(tc.Function.Arguments)
			}
		}
		blocks = append(blocks, Block{
			Type:      BlockToolUse,
			ToolUseID: tc.ID,
			ToolName:  tc.Function.Name,
			ToolInput: input,
		})
	}

	return blocks
}

func blockFromPart(p ContentPart) Block {
	if p.Type == "image_url" && p.ImageURL != nil {
		return imageBlockFromURL(p.ImageURL.URL)
	}
	return Block{Type: BlockText, Text: p.Text}
}

const dataURIPrefix = "data:"

// imageBlockFromURL distinguishes an inlined data: URI (decoded to a
// base64 source block) from a plain remote URL.
func imageBlockFromURL(raw string) Block {
	if strings.HasPrefix(raw, dataURIPrefix) {
		rest := raw[len(dataURIPrefix):]
		semi := strings.IndexByte(rest, ';')
		comma := strings.IndexByte(rest, ',')
		if semi > 0 && comma > semi {
			mediaType := rest[:semi]
			encoding := rest[semi+1 : comma]
			data := rest[comma+1:]
			if encoding == "base64" {
				return Block{Type: BlockImage, Source: &ImageSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      data,
				}}
			}
		}
	}
	return Block{Type: BlockImage, Source: &ImageSource{Type: "url", URL: raw}}
}

func decodeStringContent(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodePartsContent(raw json.RawMessage) []ContentPart {
	var parts []ContentPart
	if len(raw) == 0 {
		return parts
	}
	_ = json.Unmarshal(raw, &parts)
	return parts
}

// contentAsString renders a tool/function message's content as a plain
// string for the tool_result block, accepting either wire shape.
func contentAsString(raw json.RawMessage) string {
	if s, ok := decodeStringContent(raw); ok {
		return s
	}
	var sb strings.Builder
	for _, p := range decodePartsContent(raw) {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// ensureFirstTurnUser prepends a "." user turn if the envelope is empty
// or starts with an assistant turn.
func ensureFirstTurnUser(env *Envelope) {
	if len(env.Turns) == 0 || env.Turns[0].Role != RoleUser {
		dot := Turn{Role: RoleUser, Content: []Block{{Type: BlockText, Text: "."}}}
		env.Turns = append([]Turn{dot}, env.Turns...)
	}
}

// stripTrailingAssistantWhitespace strips trailing whitespace from the
// final assistant turn's final text block, per the invariant that a
// final assistant text block must not end with whitespace (the
// upstream API rejects it).
func stripTrailingAssistantWhitespace(env *Envelope) {
	if len(env.Turns) == 0 {
		return
	}
	last := &env.Turns[len(env.Turns)-1]
	if last.Role != RoleAssistant || len(last.Content) == 0 {
		return
	}
	lastBlock := &last.Content[len(last.Content)-1]
	if lastBlock.Type == BlockText {
		lastBlock.Text = strings.TrimRight(lastBlock.Text, " \t\n\r")
	}
}
