package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func TestFromOpenAIFirstTurnUserPrepended(t *testing.T) {
	env := FromOpenAI([]ChatMessage{
		{Role: "assistant", RawContent: rawString("hi")},
	})
	require.NotEmpty(t, env.Turns)
	assert.Equal(t, RoleUser, env.Turns[0].Role)
	assert.Equal(t, RoleAssistant, env.Turns[1].Role)
}

func TestFromOpenAIMergesConsecutiveSameRole(t *testing.T) {
	env := FromOpenAI([]ChatMessage{
		{Role: "user", RawContent: rawString("a")},
		{Role: "user", RawContent: rawString("b")},
	})
	require.Len(t, env.Turns, 1)
	assert.Equal(t, RoleUser, env.Turns[0].Role)
	assert.Len(t, env.Turns[0].Content, 2)
}

func TestFromOpenAIStripsTrailingWhitespaceOnFinalAssistantText(t *testing.T) {
	env := FromOpenAI([]ChatMessage{
		{Role: "user", RawContent: rawString("hi")},
		{Role: "assistant", RawContent: rawString("pong  \n")},
	})
	last := env.Turns[len(env.Turns)-1]
	assert.Equal(t, "pong", last.Content[len(last.Content)-1].Text)
}

func TestFromOpenAIToolRoleBecomesToolResult(t *testing.T) {
	env := FromOpenAI([]ChatMessage{
		{Role: "user", RawContent: rawString("go")},
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "call_1", Type: "function", Function: ToolCallFunc{Name: "f", Arguments: `{"x":1}`}}}},
		{Role: "tool", ToolCallID: "call_1", RawContent: rawString("result")},
	})
	toolUse := env.Turns[1].Content[0]
	assert.Equal(t, BlockToolUse, toolUse.Type)
	assert.Equal(t, "call_1", toolUse.ToolUseID)
	assert.JSONEq(t, `{"x":1}`, string(toolUse.ToolInput))

	toolResult := env.Turns[2].Content[0]
	assert.Equal(t, BlockToolResult, toolResult.Type)
	assert.Equal(t, "call_1", toolResult.ToolResultID)
	assert.Equal(t, "result", toolResult.Content)
}

func TestFromOpenAILegacyFunctionRoleSynthesizesID(t *testing.T) {
	env := FromOpenAI([]ChatMessage{
		{Role: "user", RawContent: rawString("go")},
		{Role: "function", Name: "get_weather", RawContent: rawString("sunny")},
	})
	block := env.Turns[1].Content[0]
	assert.Equal(t, "func_get_weather", block.ToolResultID)
}

func TestFromOpenAIBadToolCallArgumentsFallBackToEmptyObject(t *testing.T) {
	env := FromOpenAI([]ChatMessage{
		{Role: "user", RawContent: rawString("go")},
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "c1", Function: ToolCallFunc{Name: "f", Arguments: "not json"}}}},
	})
	block := env.Turns[1].Content[0]
	assert.JSONEq(t, `{}`, string(block.ToolInput))
}

func TestFromOpenAIImageDataURIBecomesBase64Source(t *testing.T) {
	parts, _ := json.Marshal([]ContentPart{
		{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/png;base64,QUJD"}},
	})
	env := FromOpenAI([]ChatMessage{
		{Role: "user", RawContent: parts},
	})
	block := env.Turns[0].Content[0]
	require.NotNil(t, block.Source)
	assert.Equal(t, "base64", block.Source.Type)
	assert.Equal(t, "image/png", block.Source.MediaType)
	assert.Equal(t, "QUJD", block.Source.Data)
}

func TestFromOpenAIImagePlainURLBecomesURLSource(t *testing.T) {
	parts, _ := json.Marshal([]ContentPart{
		{Type: "image_url", ImageURL: &ImageURL{URL: "https://example.com/a.png"}},
	})
	env := FromOpenAI([]ChatMessage{
		{Role: "user", RawContent: parts},
	})
	block := env.Turns[0].Content[0]
	require.NotNil(t, block.Source)
	assert.Equal(t, "url", block.Source.Type)
	assert.Equal(t, "https://example.com/a.png", block.Source.URL)
}

func TestFromOpenAIExtractsSystemSeparately(t *testing.T) {
	env := FromOpenAI([]ChatMessage{
		{Role: "system", RawContent: rawString("be nice")},
		{Role: "user", RawContent: rawString("hi")},
	})
	require.Len(t, env.System, 1)
	assert.Equal(t, "be nice", env.System[0].Text)
}
