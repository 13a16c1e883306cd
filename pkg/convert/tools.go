package convert

import "encoding/json"

// anthropicTool is the wire shape of one entry in Anthropic's `tools`
// array — flat, with the schema under `input_schema` rather than nested
// under a `function` key the way Chat Completions and Responses do.
type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// ToolsToAnthropic reshapes a Chat Completions `tools` array into the
// Anthropic wire shape, for the chat/completions-via-Anthropic branch
// that never goes through ToResponses. Malformed or empty input yields
// nil rather than an error — the sanitizer already drops an empty/null
// tools field.
func ToolsToAnthropic(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var defs []ToolDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil
	}
	out := make([]anthropicTool, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropicTool{
			Name:        d.Function.Name,
			Description: d.Function.Description,
			InputSchema: d.Function.Parameters,
		})
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return encoded
}
