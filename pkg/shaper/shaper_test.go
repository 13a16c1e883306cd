package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkh/llm-gateway/pkg/convert"
	"github.com/jkh/llm-gateway/pkg/registry"
	"github.com/jkh/llm-gateway/pkg/thinking"
)

func TestSanitizeIsIdempotent(t *testing.T) {
	badTopP := 1.5
	badTopK := int64(-1)
	req := &convert.AnthropicRequest{TopP: &badTopP, TopK: &badTopK, Tools: []byte(`[]`)}

	Sanitize(req, false)
	once := *req
	Sanitize(req, false)
	assert.Equal(t, once, *req)
	assert.Nil(t, req.TopP)
	assert.Nil(t, req.TopK)
	assert.Nil(t, req.Tools)
}

func TestSanitizeThinkingEnabledForcesParams(t *testing.T) {
	topP := 0.5
	topK := int64(40)
	req := &convert.AnthropicRequest{TopP: &topP, TopK: &topK}
	Sanitize(req, true)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 1.0, *req.Temperature)
	assert.Nil(t, req.TopK)
	require.NotNil(t, req.TopP)
	assert.Equal(t, 0.95, *req.TopP)
}

func TestReasoningVariantShapesBudgetAndFloor(t *testing.T) {
	s := New(thinking.New())
	req := &convert.AnthropicRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 1000,
		Messages:  []convert.AnthropicMessage{{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "hi"}}}},
	}
	res, err := s.Shape(req, Input{ReasoningLevel: registry.ReasoningHigh, ReasoningBudget: 32000})
	require.NoError(t, err)
	assert.True(t, res.ThinkingEnabled)
	require.NotNil(t, req.Thinking)
	assert.Equal(t, int64(32000), req.Thinking.BudgetTokens)
	assert.Equal(t, int64(33024), req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 1.0, *req.Temperature)
	assert.Nil(t, req.TopK)
}

func TestMinimalReasoningRejectedForAnthropic(t *testing.T) {
	s := New(thinking.New())
	req := &convert.AnthropicRequest{Messages: []convert.AnthropicMessage{{Role: "user"}}}
	_, err := s.Shape(req, Input{ReasoningLevel: registry.ReasoningMinimal})
	require.Error(t, err)
}

// A later turn whose last assistant message carries tool_use but no
// thinking block gets the cached signed thinking re-prepended, keeping
// thinking enabled.
func TestTurnTwoRePrependsCachedThinking(t *testing.T) {
	cache := thinking.New()
	cache.Put("toolu_1", thinking.Block{Type: "thinking", Thinking: "checking weather", Signature: "sig_abc"})

	s := New(cache)
	req := &convert.AnthropicRequest{
		MaxTokens: 1000,
		Messages: []convert.AnthropicMessage{
			{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "what's next"}}},
			{Role: "assistant", Content: []convert.Block{
				{Type: convert.BlockToolUse, ToolUseID: "toolu_1", ToolName: "get_weather"},
			}},
		},
	}

	res, err := s.Shape(req, Input{ReasoningLevel: registry.ReasoningHigh, ReasoningBudget: 32000})
	require.NoError(t, err)
	assert.True(t, res.ThinkingEnabled)
	require.NotNil(t, req.Thinking)

	last := req.Messages[len(req.Messages)-1]
	require.NotEmpty(t, last.Content)
	assert.Equal(t, convert.BlockType("thinking"), last.Content[0].Type)
	assert.Equal(t, "sig_abc", last.Content[0].Signature)
}

func TestThinkingDisabledWhenNoCachedSignatureAvailable(t *testing.T) {
	s := New(thinking.New())
	req := &convert.AnthropicRequest{
		MaxTokens: 1000,
		Messages: []convert.AnthropicMessage{
			{Role: "assistant", Content: []convert.Block{{Type: convert.BlockToolUse, ToolUseID: "toolu_9"}}},
		},
	}
	res, err := s.Shape(req, Input{ReasoningLevel: registry.ReasoningHigh, ReasoningBudget: 32000})
	require.NoError(t, err)
	assert.False(t, res.ThinkingEnabled)
	assert.Nil(t, req.Thinking)
}

func TestInjectSpoofSystemMessageSkipsWhenAlreadyPresent(t *testing.T) {
	req := &convert.AnthropicRequest{System: []convert.Block{{Type: convert.BlockText, Text: spoofSystemMessage}}}
	InjectSpoofSystemMessage(req)
	assert.Len(t, req.System, 1)
}

func TestInjectSpoofSystemMessagePrepends(t *testing.T) {
	req := &convert.AnthropicRequest{System: []convert.Block{{Type: convert.BlockText, Text: "custom"}}}
	InjectSpoofSystemMessage(req)
	require.Len(t, req.System, 2)
	assert.Equal(t, spoofSystemMessage, req.System[0].Text)
	assert.Equal(t, "custom", req.System[1].Text)
}

func TestAddPromptCachingNeverExceedsFour(t *testing.T) {
	req := &convert.AnthropicRequest{
		Tools:  []byte(`[{"name":"a"},{"name":"b"}]`),
		System: []convert.Block{{Type: convert.BlockText, Text: "sys"}},
		Messages: []convert.AnthropicMessage{
			{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "u1"}}},
			{Role: "assistant", Content: []convert.Block{{Type: convert.BlockText, Text: "a1"}}},
			{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "u2"}}},
			{Role: "assistant", Content: []convert.Block{{Type: convert.BlockText, Text: "a2"}}},
			{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "u3"}}},
		},
	}
	require.NoError(t, AddPromptCaching(req))
	assert.LessOrEqual(t, countExistingMarkers(req), maxCacheBreakpoints)
	assert.Equal(t, maxCacheBreakpoints, countExistingMarkers(req))
}

func TestAddPromptCachingSkipsWhenAlreadyAtLimit(t *testing.T) {
	req := &convert.AnthropicRequest{
		System: []convert.Block{{Type: convert.BlockText, Text: "sys", CacheControl: &convert.CacheControl{Type: "ephemeral"}}},
		Messages: []convert.AnthropicMessage{
			{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "u1", CacheControl: &convert.CacheControl{Type: "ephemeral"}}}},
			{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "u2", CacheControl: &convert.CacheControl{Type: "ephemeral"}}}},
			{Role: "user", Content: []convert.Block{{Type: convert.BlockText, Text: "u3", CacheControl: &convert.CacheControl{Type: "ephemeral"}}}},
		},
	}
	before := countExistingMarkers(req)
	require.Equal(t, 4, before)
	require.NoError(t, AddPromptCaching(req))
	assert.Equal(t, before, countExistingMarkers(req))
}

func TestBetaHeadersStreamingIgnoresClientBetas(t *testing.T) {
	betas := BetaHeaders(true, true, true, false, []string{"client-beta"})
	assert.Contains(t, betas, "oauth-2025-04-20")
	assert.Contains(t, betas, "context-1m-2025-08-07")
	assert.Contains(t, betas, "interleaved-thinking-2025-05-14")
	assert.NotContains(t, betas, "client-beta")
}

func TestBetaHeadersNonStreamingMergesClientBetasDeduped(t *testing.T) {
	betas := BetaHeaders(false, false, false, true, []string{"oauth-2025-04-20", "custom-beta", "custom-beta"})
	assert.Equal(t, []string{"oauth-2025-04-20", "fine-grained-tool-streaming-2025-05-14", "custom-beta"}, betas)
}
