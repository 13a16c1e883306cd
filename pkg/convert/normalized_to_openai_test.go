package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToOpenAIResponseMapsStopReasons(t *testing.T) {
	cases := map[string]string{
		"end_turn":      "stop",
		"stop_sequence": "stop",
		"max_tokens":    "length",
		"tool_use":      "tool_calls",
		"unknown":       "stop",
	}
	for in, want := range cases {
		resp := &AnthropicResponse{StopReason: in}
		out := ToOpenAIResponse(resp)
		assert.Equal(t, want, out.Choices[0].FinishReason, "stop reason %q", in)
	}
}

func TestToOpenAIResponseAssemblesUsage(t *testing.T) {
	resp := &AnthropicResponse{
		StopReason: "end_turn",
		Usage:      AnthropicUsage{InputTokens: 10, OutputTokens: 20},
	}
	out := ToOpenAIResponse(resp)
	assert.Equal(t, 10, out.Usage.PromptTokens)
	assert.Equal(t, 20, out.Usage.CompletionTokens)
	assert.Equal(t, 30, out.Usage.TotalTokens)
	assert.Nil(t, out.Usage.CompletionDetail)
}

func TestToOpenAIResponseTextAndToolCalls(t *testing.T) {
	resp := &AnthropicResponse{
		StopReason: "tool_use",
		Content: []Block{
			{Type: BlockText, Text: "hello "},
			{Type: BlockToolUse, ToolUseID: "toolu_1", ToolName: "get_weather", ToolInput: []byte(`{"city":"Berlin"}`)},
		},
	}
	out := ToOpenAIResponse(resp)
	assert.Equal(t, "hello ", out.Choices[0].Message.Content)
	assert.Equal(t, "tool_calls", out.Choices[0].FinishReason)
	assert.Len(t, out.Choices[0].Message.ToolCalls, 1)
	assert.Equal(t, "toolu_1", out.Choices[0].Message.ToolCalls[0].ID)
	assert.JSONEq(t, `{"city":"Berlin"}`, out.Choices[0].Message.ToolCalls[0].Function.Arguments)
}

func TestToOpenAIResponseToolCallWithEmptyInputDefaultsToEmptyObject(t *testing.T) {
	resp := &AnthropicResponse{
		Content: []Block{
			{Type: BlockToolUse, ToolUseID: "toolu_1", ToolName: "f"},
		},
	}
	out := ToOpenAIResponse(resp)
	assert.Equal(t, "{}", out.Choices[0].Message.ToolCalls[0].Function.Arguments)
}

func TestToOpenAIResponseThinkingBlocksSetReasoningAndTokenEstimate(t *testing.T) {
	thinkingText := "abcdefgh" // 8 chars -> 2 reasoning tokens
	resp := &AnthropicResponse{
		Content: []Block{
			{Type: BlockThinking, Thinking: thinkingText, Signature: "sig_abc"},
		},
	}
	out := ToOpenAIResponse(resp)
	assert.Equal(t, thinkingText, out.Choices[0].Message.ReasoningContent)
	assert.Len(t, out.Choices[0].Message.ThinkingBlocks, 1)
	assert.Equal(t, "sig_abc", out.Choices[0].Message.ThinkingBlocks[0].Signature)
	assert.NotNil(t, out.Usage.CompletionDetail)
	assert.Equal(t, 2, out.Usage.CompletionDetail.ReasoningTokens)
}

func TestToOpenAIResponseRedactedThinkingHasNoText(t *testing.T) {
	resp := &AnthropicResponse{
		Content: []Block{
			{Type: BlockRedactedThinking, Signature: "sig_x"},
		},
	}
	out := ToOpenAIResponse(resp)
	assert.Equal(t, "", out.Choices[0].Message.ReasoningContent)
	assert.Len(t, out.Choices[0].Message.ThinkingBlocks, 1)
	assert.Equal(t, "redacted_thinking", out.Choices[0].Message.ThinkingBlocks[0].Type)
}
