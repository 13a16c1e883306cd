package convert

import "encoding/json"

// ResponsesRequest is the outbound wire shape of the ChatGPT/Codex
// Responses API. store is always false; stream is always true on the
// wire (the Codex driver collects to one object itself when the inbound
// client asked for non-streaming).
type ResponsesRequest struct {
	Model     string              `json:"model"`
	Input     []ResponsesItem     `json:"input"`
	Tools     []ResponsesTool     `json:"tools,omitempty"`
	Store     bool                `json:"store"`
	Stream    bool                `json:"stream"`
	Reasoning *ResponsesReasoning `json:"reasoning,omitempty"`
	Include   []string            `json:"include,omitempty"`
}

// ResponsesReasoning is the `reasoning` parameter sent when a reasoning
// effort is requested.
type ResponsesReasoning struct {
	Effort  string `json:"effort"`
	Summary string `json:"summary,omitempty"`
}

// ResponsesTool is a tool definition reshaped for the Responses API — the
// Responses API inlines function tool fields at the top level rather
// than nesting them under a `function` key like Chat Completions does.
type ResponsesTool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Strict      bool            `json:"strict"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ResponsesItem is one `input` array element. Exactly one of the typed
// fields is populated depending on Type — message / function_call /
// function_call_output.
type ResponsesItem struct {
	Type string `json:"type"`

	// message
	Role    string                 `json:"role,omitempty"`
	Content []ResponsesContentPart `json:"content,omitempty"`

	// function_call
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// function_call_output
	Output string `json:"output,omitempty"`
}

// ResponsesContentPart is one typed content part of a message item:
// input_text, output_text, or input_image.
type ResponsesContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
