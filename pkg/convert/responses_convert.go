package convert

import "encoding/json"

// ToolDef is a client-supplied OpenAI Chat Completions tool definition
// (the `tools` array entry), decoded loosely enough to reshape for the
// Responses API.
type ToolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

// ReasoningRequest carries the caller's resolved reasoning parameters, if
// any.
type ReasoningRequest struct {
	Effort string // "" if no reasoning requested
}

// ToResponses reshapes an OpenAI Chat Completions request into the
// Responses API wire shape for the ChatGPT/Codex driver.
func ToResponses(model string, messages []ChatMessage, tools json.RawMessage, reasoning ReasoningRequest) ResponsesRequest {
	req := ResponsesRequest{
		Model:  model,
		Input:  buildInputItems(messages),
		Store:  false,
		Stream: true,
	}

	if reasoning.Effort != "" {
		req.Reasoning = &ResponsesReasoning{Effort: reasoning.Effort, Summary: "auto"}
		req.Include = append(req.Include, "reasoning.encrypted_content")
	}

	if len(tools) > 0 {
		var defs []ToolDef
		if err := json.Unmarshal(tools, &defs); err == nil {
			req.Tools = buildResponsesTools(defs)
		}
	}

	return req
}

func buildResponsesTools(defs []ToolDef) []ResponsesTool {
	out := make([]ResponsesTool, 0, len(defs))
	for _, d := range defs {
		out = append(out, ResponsesTool{
			Type:        "function",
			Name:        d.Function.Name,
			Description: d.Function.Description,
			Strict:      false,
			Parameters:  d.Function.Parameters,
		})
	}
	return out
}

// buildInputItems reshapes the Chat Completions messages array into
// Responses input items: tool role → function_call_output; assistant
// tool_calls → function_call items; everything else → a typed message
// item with input_text/output_text/input_image content parts.
func buildInputItems(messages []ChatMessage) []ResponsesItem {
	var items []ResponsesItem

	for _, msg := range messages {
		switch msg.Role {
		case "tool":
			items = append(items, ResponsesItem{
				Type:   "function_call_output",
				CallID: msg.ToolCallID,
				Output: contentAsString(msg.RawContent),
			})
			continue

		case "function":
			items = append(items, ResponsesItem{
				Type:   "function_call_output",
				CallID: "func_" + msg.Name,
				Output: contentAsString(msg.RawContent),
			})
			continue
		}

		textType := "input_text"
		if msg.Role == "assistant" {
			textType = "output_text"
		}

		var parts []ResponsesContentPart
		if text, ok := decodeStringContent(msg.RawContent); ok {
			if text != "" {
				parts = append(parts, ResponsesContentPart{Type: textType, Text: text})
			}
		} else {
			for _, p := range decodePartsContent(msg.RawContent) {
				if p.Type == "image_url" && p.ImageURL != nil {
					parts = append(parts, ResponsesContentPart{Type: "input_image", ImageURL: p.ImageURL.URL})
					continue
				}
				parts = append(parts, ResponsesContentPart{Type: textType, Text: p.Text})
			}
		}

		if len(parts) > 0 {
			items = append(items, ResponsesItem{Type: "message", Role: msg.Role, Content: parts})
		}

		for _, tc := range msg.ToolCalls {
			items = append(items, ResponsesItem{
				Type:      "function_call",
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}

	return items
}
