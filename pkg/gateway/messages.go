package gateway

import (
	"io"
	"net/http"
	"strings"

	"github.com/jkh/llm-gateway/pkg/convert"
	"github.com/jkh/llm-gateway/pkg/shaper"
	"github.com/jkh/llm-gateway/pkg/upstream"
)

// handleMessages is the Anthropic-native path: shape the inbound
// request then forward it to the Anthropic driver as-is, translating the
// driver's response/stream back through no converter at all — this path
// never leaves the Anthropic dialect.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, dialectAnthropic, err)
		return
	}

	req, err := decodeAnthropicRequest(body, s.config.DefaultModel)
	if err != nil {
		writeError(w, r, dialectAnthropic, err)
		return
	}

	resolution := s.registry.Resolve(req.Model)
	req.Model = resolution.BackendID

	sh := shaper.New(s.cache)
	result, err := sh.Shape(req, shaper.Input{
		ReasoningLevel:  resolution.ReasoningLevel,
		ReasoningBudget: resolution.ReasoningBudget,
		Use1MContext:    resolution.Use1MContext,
		Streaming:       req.Stream,
		ClientBetas:     parseCommaList(r.Header.Get("anthropic-beta")),
	})
	if err != nil {
		writeError(w, r, dialectAnthropic, err)
		return
	}

	bundle, err := s.anthropicCreds.Get(r.Context())
	if err != nil {
		writeError(w, r, dialectAnthropic, err)
		return
	}
	auth := upstream.AuthHeader{AccessToken: bundle.AccessToken, Betas: result.BetaHeaders}

	if !req.Stream {
		resp, err := s.anthropicDriver.Invoke(r.Context(), req, auth)
		if err != nil {
			writeError(w, r, dialectAnthropic, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	stream, err := s.anthropicDriver.Stream(r.Context(), req, auth)
	if err != nil {
		writeError(w, r, dialectAnthropic, err)
		return
	}
	defer stream.Close()

	// The native path never leaves the Anthropic dialect, so every frame
	// is forwarded to the client byte-for-byte. A StreamConverter still
	// observes each event purely for its message_stop side effect
	// (persisting signed thinking into the cache for the next turn's
	// Request Shaper lookup) — its returned chunks go unused here.
	flusher := prepareSSEResponse(w)
	converter := convert.NewStreamConverter(s.cache, "", req.Model)
	tracer := s.traceStream(r, "messages")
	defer tracer.Close()
	ctx := r.Context()
	for {
		ev, ok := stream.Next(ctx)
		if !ok {
			return
		}
		tracer.LogSource(ev.Data)
		writeRawSSEEvent(w, flusher, ev)
		if _, done := converter.Feed(ev); done {
			return
		}
	}
}

// handleCountTokens implements the local chars/4 estimate. Deliberately
// a placeholder: it avoids an upstream round trip and clients only use
// it for rough budgeting.
func (s *Server) handleCountTokens(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, dialectAnthropic, err)
		return
	}

	req, err := decodeAnthropicRequest(body, s.config.DefaultModel)
	if err != nil {
		writeError(w, r, dialectAnthropic, err)
		return
	}

	count := estimateTokens(req)
	writeJSON(w, http.StatusOK, map[string]int{"input_tokens": count})
}

func estimateTokens(req *convert.AnthropicRequest) int {
	total := 0
	for _, b := range req.System {
		total += len(b.Text)
	}
	for _, m := range req.Messages {
		for _, b := range m.Content {
			total += len(b.Text) + len(b.Thinking) + len(b.Content)
		}
	}
	chars := total / 4
	if chars < 1 {
		return 1
	}
	return chars
}

func parseCommaList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
