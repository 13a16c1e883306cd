package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToResponsesAlwaysSetsStoreFalseAndStreamTrue(t *testing.T) {
	req := ToResponses("gpt-5-codex", nil, nil, ReasoningRequest{})
	assert.False(t, req.Store)
	assert.True(t, req.Stream)
	assert.Nil(t, req.Reasoning)
	assert.Empty(t, req.Include)
}

func TestToResponsesReasoningAddsEncryptedContentInclude(t *testing.T) {
	req := ToResponses("gpt-5-codex", nil, nil, ReasoningRequest{Effort: "high"})
	require.NotNil(t, req.Reasoning)
	assert.Equal(t, "high", req.Reasoning.Effort)
	assert.Contains(t, req.Include, "reasoning.encrypted_content")
}

func TestToResponsesToolCallBecomesFunctionCallItem(t *testing.T) {
	req := ToResponses("gpt-5-codex", []ChatMessage{
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "call_1", Function: ToolCallFunc{Name: "get_weather", Arguments: `{"city":"Berlin"}`}}}},
	}, nil, ReasoningRequest{})

	var found bool
	for _, item := range req.Input {
		if item.Type == "function_call" {
			found = true
			assert.Equal(t, "call_1", item.CallID)
			assert.Equal(t, "get_weather", item.Name)
			assert.JSONEq(t, `{"city":"Berlin"}`, item.Arguments)
		}
	}
	assert.True(t, found, "expected a function_call item")
}

func TestToResponsesToolRoleBecomesFunctionCallOutput(t *testing.T) {
	req := ToResponses("gpt-5-codex", []ChatMessage{
		{Role: "tool", ToolCallID: "call_1", RawContent: rawString("sunny")},
	}, nil, ReasoningRequest{})

	require.Len(t, req.Input, 1)
	assert.Equal(t, "function_call_output", req.Input[0].Type)
	assert.Equal(t, "call_1", req.Input[0].CallID)
	assert.Equal(t, "sunny", req.Input[0].Output)
}

func TestToResponsesLegacyFunctionRoleSynthesizesCallID(t *testing.T) {
	req := ToResponses("gpt-5-codex", []ChatMessage{
		{Role: "function", Name: "get_weather", RawContent: rawString("sunny")},
	}, nil, ReasoningRequest{})

	require.Len(t, req.Input, 1)
	assert.Equal(t, "func_get_weather", req.Input[0].CallID)
}

func TestToResponsesMessageTextTypeVariesByRole(t *testing.T) {
	req := ToResponses("gpt-5-codex", []ChatMessage{
		{Role: "user", RawContent: rawString("hi")},
		{Role: "assistant", RawContent: rawString("hello")},
	}, nil, ReasoningRequest{})

	require.Len(t, req.Input, 2)
	assert.Equal(t, "input_text", req.Input[0].Content[0].Type)
	assert.Equal(t, "output_text", req.Input[1].Content[0].Type)
}

func TestToResponsesImageURLBecomesInputImage(t *testing.T) {
	parts, _ := json.Marshal([]ContentPart{
		{Type: "image_url", ImageURL: &ImageURL{URL: "https://example.com/a.png"}},
	})
	req := ToResponses("gpt-5-codex", []ChatMessage{
		{Role: "user", RawContent: parts},
	}, nil, ReasoningRequest{})

	require.Len(t, req.Input, 1)
	assert.Equal(t, "input_image", req.Input[0].Content[0].Type)
	assert.Equal(t, "https://example.com/a.png", req.Input[0].Content[0].ImageURL)
}

func TestToResponsesToolsReshapedToTopLevelFields(t *testing.T) {
	tools, _ := json.Marshal([]map[string]any{
		{
			"type": "function",
			"function": map[string]any{
				"name":        "get_weather",
				"description": "gets weather",
				"parameters":  map[string]any{"type": "object"},
			},
		},
	})
	req := ToResponses("gpt-5-codex", nil, tools, ReasoningRequest{})
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "function", req.Tools[0].Type)
	assert.Equal(t, "get_weather", req.Tools[0].Name)
	assert.Equal(t, "gets weather", req.Tools[0].Description)
	assert.False(t, req.Tools[0].Strict)
}
