// Package shaper turns a resolved model + normalized envelope into the
// exact outbound Anthropic request body and beta-header set, in a fixed
// step order: resolve model (owned by the caller via pkg/registry),
// thinking budget, sanitize, spoof system message, prompt cache
// breakpoints, beta headers.
package shaper

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jkh/llm-gateway/pkg/convert"
	"github.com/jkh/llm-gateway/pkg/gwerrors"
	"github.com/jkh/llm-gateway/pkg/registry"
	"github.com/jkh/llm-gateway/pkg/thinking"
)

// spoofSystemMessage is the fixed leading system block required to
// satisfy upstream subscription-auth detection.
const spoofSystemMessage = "You are Claude Code, Anthropic's official CLI for Claude."

const maxCacheBreakpoints = 4

// Shaper applies the request-shaping pipeline, consulting the Thinking
// Cache when a turn needs a re-prepended signed thinking block.
type Shaper struct {
	Cache *thinking.Cache
}

// New builds a Shaper backed by cache.
func New(cache *thinking.Cache) *Shaper {
	return &Shaper{Cache: cache}
}

// Input carries the per-request knobs the Shaper needs beyond the
// request body itself — the outputs of model resolution (performed by
// the caller via pkg/registry.Resolve) plus wire context.
type Input struct {
	ReasoningLevel  registry.ReasoningLevel
	ReasoningBudget int
	Use1MContext    bool
	Streaming       bool
	ClientBetas     []string
}

// Result carries the pipeline's side effects the caller needs to finish
// building the outbound HTTP request.
type Result struct {
	ThinkingEnabled bool
	BetaHeaders     []string
}

// Shape runs the pipeline against req in place. Model resolution is the
// caller's responsibility — it happens before a Shaper even has a
// request body to work with.
func (s *Shaper) Shape(req *convert.AnthropicRequest, in Input) (Result, error) {
	thinkingEnabled := false

	if in.ReasoningLevel != "" {
		if in.ReasoningLevel == registry.ReasoningMinimal {
			return Result{}, gwerrors.ClientMalformed("reasoning_effort",
				"minimal reasoning effort is not supported when routed to Anthropic")
		}
		enabled, err := s.applyThinkingBudget(req, in.ReasoningBudget)
		if err != nil {
			return Result{}, err
		}
		thinkingEnabled = enabled
	}

	Sanitize(req, thinkingEnabled)
	InjectSpoofSystemMessage(req)

	if err := AddPromptCaching(req); err != nil {
		return Result{}, err
	}

	betas := BetaHeaders(thinkingEnabled, in.Streaming, in.Use1MContext, len(req.Tools) > 0, in.ClientBetas)
	return Result{ThinkingEnabled: thinkingEnabled, BetaHeaders: betas}, nil
}

// applyThinkingBudget enables thinking with the resolved budget and
// raises the max-token floor. If the last assistant turn carries
// tool_use but no thinking block, it looks up the Thinking Cache for any
// of that turn's tool_use ids; on a hit the cached block is re-prepended
// and thinking stays enabled, on a miss thinking is disabled for this
// turn rather than dropping any message (dropping would break the
// tool_use/tool_result linkage the upstream API requires).
func (s *Shaper) applyThinkingBudget(req *convert.AnthropicRequest, budget int) (bool, error) {
	req.Thinking = &convert.ThinkingConfig{Type: "enabled", BudgetTokens: int64(budget)}
	if floor := int64(budget) + 1024; req.MaxTokens < floor {
		req.MaxTokens = floor
	}

	n := len(req.Messages)
	if n == 0 {
		return true, nil
	}
	last := &req.Messages[n-1]
	if last.Role != "assistant" || !convert.BlocksHaveToolUse(last.Content) || convert.BlocksStartWithThinking(last.Content) {
		return true, nil
	}

	var cached *thinking.Block
	if s.Cache != nil {
		for _, id := range convert.ToolUseIDsOf(last.Content) {
			if b, ok := s.Cache.Get(id); ok {
				cached = &b
				break
			}
		}
	}
	if cached == nil {
		req.Thinking = nil
		return false, nil
	}

	prepend := convert.Block{
		Type:      convert.BlockType(cached.Type),
		Thinking:  cached.Thinking,
		Data:      cached.Data,
		Signature: cached.Signature,
	}
	last.Content = append([]convert.Block{prepend}, last.Content...)
	return true, nil
}

// Sanitize drops out-of-range/wrong-shape sampling parameters, then (if
// thinking is enabled) forces the parameters Anthropic's thinking mode
// requires. Idempotent by construction — every branch either leaves a
// field untouched or sets it to a value that re-satisfies the same
// condition.
func Sanitize(req *convert.AnthropicRequest, thinkingEnabled bool) {
	if req.TopP != nil && (*req.TopP < 0 || *req.TopP > 1) {
		req.TopP = nil
	}
	if req.TopK != nil && *req.TopK <= 0 {
		req.TopK = nil
	}
	if isEmptyToolsJSON(req.Tools) {
		req.Tools = nil
	}

	if !thinkingEnabled {
		return
	}
	one := 1.0
	req.Temperature = &one
	req.TopK = nil
	if req.TopP != nil {
		clamped := clamp(*req.TopP, 0.95, 1.0)
		req.TopP = &clamped
	}
}

func isEmptyToolsJSON(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	v := gjson.ParseBytes(raw)
	if !v.Exists() || v.Type == gjson.Null {
		return true
	}
	return v.IsArray() && len(v.Array()) == 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseOptionalFloat decodes an inbound client parameter that should be a
// JSON number, returning nil for anything else — absent, null, a string,
// an object — so a wrong-typed value is dropped rather than rejected
// rather than rejected.
func ParseOptionalFloat(raw []byte) *float64 {
	if len(raw) == 0 {
		return nil
	}
	v := gjson.ParseBytes(raw)
	if v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}

// ParseOptionalInt decodes an inbound client parameter that should be a
// JSON integer, returning nil for non-numeric or non-integral input.
func ParseOptionalInt(raw []byte) *int64 {
	if len(raw) == 0 {
		return nil
	}
	v := gjson.ParseBytes(raw)
	if v.Type != gjson.Number || v.Num != float64(int64(v.Num)) {
		return nil
	}
	i := v.Int()
	return &i
}

// InjectSpoofSystemMessage prepends the fixed spoof text block unless it
// is already the first system block.
func InjectSpoofSystemMessage(req *convert.AnthropicRequest) {
	if len(req.System) > 0 && req.System[0].Type == convert.BlockText && req.System[0].Text == spoofSystemMessage {
		return
	}
	spoof := convert.Block{Type: convert.BlockText, Text: spoofSystemMessage}
	req.System = append([]convert.Block{spoof}, req.System...)
}

// AddPromptCaching places cache_control markers — in hierarchy order
// last tool, last system block, up to two most recent user turns' last
// content block — until the total reaches maxCacheBreakpoints. Counts
// existing markers first and does nothing at all once already at the
// limit.
func AddPromptCaching(req *convert.AnthropicRequest) error {
	remaining := maxCacheBreakpoints - countExistingMarkers(req)
	if remaining <= 0 {
		return nil
	}

	if remaining > 0 && len(req.Tools) > 0 {
		newTools, added, err := addCacheControlToLastTool(req.Tools)
		if err != nil {
			return err
		}
		if added {
			req.Tools = newTools
			remaining--
		}
	}

	if remaining > 0 && len(req.System) > 0 {
		last := &req.System[len(req.System)-1]
		if last.CacheControl == nil {
			last.CacheControl = &convert.CacheControl{Type: "ephemeral"}
			remaining--
		}
	}

	userTurnsMarked := 0
	for i := len(req.Messages) - 1; i >= 0 && remaining > 0 && userTurnsMarked < 2; i-- {
		msg := &req.Messages[i]
		if msg.Role != "user" || len(msg.Content) == 0 {
			continue
		}
		lastBlock := &msg.Content[len(msg.Content)-1]
		if lastBlock.CacheControl == nil {
			lastBlock.CacheControl = &convert.CacheControl{Type: "ephemeral"}
			remaining--
		}
		userTurnsMarked++
	}

	return nil
}

func countExistingMarkers(req *convert.AnthropicRequest) int {
	count := 0
	for _, b := range req.System {
		if b.CacheControl != nil {
			count++
		}
	}
	for _, msg := range req.Messages {
		for _, b := range msg.Content {
			if b.CacheControl != nil {
				count++
			}
		}
	}
	if len(req.Tools) > 0 {
		v := gjson.ParseBytes(req.Tools)
		if v.IsArray() {
			for _, t := range v.Array() {
				if t.Get("cache_control").Exists() {
					count++
				}
			}
		}
	}
	return count
}

// addCacheControlToLastTool sets a cache_control marker on the last
// element of the raw `tools` JSON array via sjson, without a full
// unmarshal/remarshal of the (client-defined, arbitrarily-shaped) tool
// schema.
func addCacheControlToLastTool(tools []byte) ([]byte, bool, error) {
	arr := gjson.ParseBytes(tools)
	if !arr.IsArray() {
		return tools, false, nil
	}
	items := arr.Array()
	if len(items) == 0 {
		return tools, false, nil
	}
	idx := len(items) - 1
	if items[idx].Get("cache_control").Exists() {
		return tools, false, nil
	}
	out, err := sjson.SetBytes(tools, fmt.Sprintf("%d.cache_control.type", idx), "ephemeral")
	if err != nil {
		return tools, false, err
	}
	return out, true, nil
}

// BetaHeaders composes the anthropic-beta token set.
// Client-supplied betas are merged (deduped, insertion-order preserved)
// for non-streaming requests only; streaming requests ignore them
// entirely.
func BetaHeaders(thinkingEnabled, streaming, use1MContext, hasTools bool, clientBetas []string) []string {
	betas := []string{"oauth-2025-04-20"}
	if streaming && use1MContext {
		betas = append(betas, "context-1m-2025-08-07")
	}
	if thinkingEnabled {
		betas = append(betas, "interleaved-thinking-2025-05-14")
	}
	if !streaming && hasTools {
		betas = append(betas, "fine-grained-tool-streaming-2025-05-14")
	}

	if streaming {
		return betas
	}

	seen := make(map[string]bool, len(betas))
	for _, b := range betas {
		seen[b] = true
	}
	for _, cb := range clientBetas {
		if cb == "" || seen[cb] {
			continue
		}
		seen[cb] = true
		betas = append(betas, cb)
	}
	return betas
}
