package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jkh/llm-gateway/pkg/convert"
	"github.com/jkh/llm-gateway/pkg/gwerrors"
	"github.com/jkh/llm-gateway/pkg/registry"
	"github.com/jkh/llm-gateway/pkg/shaper"
	"github.com/jkh/llm-gateway/pkg/telemetry"
	"github.com/jkh/llm-gateway/pkg/upstream"
)

// handleChatCompletions branches three ways on the resolved model: a
// ChatGPT-family model routes through the Responses driver, a
// user-configured custom provider is a pass-through to the
// OpenAI-compatible driver, and everything else goes through dialect
// conversion and request shaping to the Anthropic driver.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, dialectOpenAI, err)
		return
	}

	var req convert.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, dialectOpenAI, gwerrors.ClientMalformed("body", "malformed JSON body"))
		return
	}
	if req.Model == "" {
		req.Model = s.config.DefaultModel
	}
	if req.Model == "" {
		writeError(w, r, dialectOpenAI, gwerrors.ClientMalformed("model", "model is required"))
		return
	}

	resolution := s.registry.Resolve(req.Model)

	switch {
	case resolution.Entry.BaseURL != "":
		s.proxyOpenAICompat(w, r, &req, resolution)
	case resolution.Entry.OwnedBy == "openai":
		s.proxyResponses(w, r, &req, resolution)
	default:
		s.proxyAnthropicFromChat(w, r, &req, resolution)
	}
}

func (s *Server) proxyOpenAICompat(w http.ResponseWriter, r *http.Request, req *convert.ChatCompletionRequest, resolution registry.Resolution) {
	req.Model = resolution.BackendID
	driver := upstream.NewOpenAICompatDriver(resolution.Entry.BaseURL, resolution.Entry.APIKey)

	spanCtx, span := startUpstreamSpan(r.Context(), "upstream.openai_compat",
		attribute.String("model", req.Model), attribute.Bool("stream", req.Stream))

	if !req.Stream {
		resp, err := driver.Invoke(spanCtx, req)
		endUpstreamSpan(span, err)
		if err != nil {
			writeError(w, r, dialectOpenAI, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	stream, err := driver.Stream(spanCtx, req)
	if err != nil {
		endUpstreamSpan(span, err)
		writeError(w, r, dialectOpenAI, err)
		return
	}
	defer stream.Close()

	flusher := prepareSSEResponse(w)
	tracer := s.traceStream(r, "chat.completions.compat")
	defer tracer.Close()
	for {
		ev, ok := stream.Next(spanCtx)
		if !ok {
			telemetry.AddEvent(spanCtx, "stream_complete")
			endUpstreamSpan(span, nil)
			writeSSEDone(w, flusher)
			return
		}
		tracer.LogSource(ev.Data)
		writeJSONSSEEvent(w, flusher, []byte(ev.Data))
	}
}

func (s *Server) proxyResponses(w http.ResponseWriter, r *http.Request, req *convert.ChatCompletionRequest, resolution registry.Resolution) {
	bundle, err := s.chatgptCreds.Get(r.Context())
	if err != nil {
		writeError(w, r, dialectOpenAI, err)
		return
	}
	auth := upstream.CodexAuth{AccessToken: bundle.AccessToken, AccountID: bundle.AccountID}

	effort := req.ReasoningEffort
	if resolution.ReasoningLevel != "" {
		effort = string(resolution.ReasoningLevel)
	}
	respReq := convert.ToResponses(resolution.BackendID, req.Messages, req.Tools, convert.ReasoningRequest{Effort: effort})

	spanCtx, span := startUpstreamSpan(r.Context(), "upstream.responses",
		attribute.String("model", resolution.BackendID), attribute.Bool("stream", req.Stream),
		attribute.String("reasoning_effort", effort))

	if !req.Stream {
		resp, err := s.responsesDriver.Invoke(spanCtx, &respReq, auth)
		endUpstreamSpan(span, err)
		if err != nil {
			writeError(w, r, dialectOpenAI, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	stream, err := s.responsesDriver.Stream(spanCtx, &respReq, auth)
	if err != nil {
		endUpstreamSpan(span, err)
		writeError(w, r, dialectOpenAI, err)
		return
	}
	defer stream.Close()

	flusher := prepareSSEResponse(w)
	converter := convert.NewResponsesStreamConverter("", resolution.BackendID)
	tracer := s.traceStream(r, "chat.completions.responses")
	defer tracer.Close()
	for {
		ev, ok := stream.Next(spanCtx)
		if !ok {
			telemetry.AddEvent(spanCtx, "stream_complete")
			endUpstreamSpan(span, nil)
			writeSSEDone(w, flusher)
			return
		}
		tracer.LogSource(ev.Data)
		chunks, done := converter.Feed(ev)
		for _, c := range chunks {
			data, _ := json.Marshal(c)
			tracer.LogConverted(string(data))
			writeJSONSSEEvent(w, flusher, data)
			if c.Error != nil {
				telemetry.RecordError(spanCtx, gwerrors.UpstreamTransport(c.Error.Message, nil))
			}
		}
		if done {
			endUpstreamSpan(span, nil)
			writeSSEDone(w, flusher)
			return
		}
	}
}

func (s *Server) proxyAnthropicFromChat(w http.ResponseWriter, r *http.Request, req *convert.ChatCompletionRequest, resolution registry.Resolution) {
	env := convert.FromOpenAI(req.Messages)
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}
	anthReq := env.ToAnthropicRequest(resolution.BackendID, maxTokens, req.Stream)
	anthReq.Tools = convert.ToolsToAnthropic(req.Tools)
	anthReq.Stop = req.Stop
	anthReq.Temperature = shaper.ParseOptionalFloat(req.Temperature)
	anthReq.TopP = shaper.ParseOptionalFloat(req.TopP)
	anthReq.TopK = shaper.ParseOptionalInt(req.TopK)

	sh := shaper.New(s.cache)
	result, err := sh.Shape(anthReq, shaper.Input{
		ReasoningLevel:  resolution.ReasoningLevel,
		ReasoningBudget: resolution.ReasoningBudget,
		Use1MContext:    resolution.Use1MContext,
		Streaming:       req.Stream,
	})
	if err != nil {
		writeError(w, r, dialectOpenAI, err)
		return
	}

	bundle, err := s.anthropicCreds.Get(r.Context())
	if err != nil {
		writeError(w, r, dialectOpenAI, err)
		return
	}
	auth := upstream.AuthHeader{AccessToken: bundle.AccessToken, Betas: result.BetaHeaders}

	spanCtx, span := startUpstreamSpan(r.Context(), "upstream.anthropic",
		attribute.String("model", anthReq.Model), attribute.Bool("stream", req.Stream),
		attribute.Int64("max_tokens", anthReq.MaxTokens))
	if anthReq.Thinking != nil {
		span.SetAttributes(attribute.Int64("thinking_budget", anthReq.Thinking.BudgetTokens))
	}

	if !req.Stream {
		resp, err := s.anthropicDriver.Invoke(spanCtx, anthReq, auth)
		endUpstreamSpan(span, err)
		if err != nil {
			writeError(w, r, dialectOpenAI, err)
			return
		}
		writeJSON(w, http.StatusOK, convert.ToOpenAIResponse(resp))
		return
	}

	stream, err := s.anthropicDriver.Stream(spanCtx, anthReq, auth)
	if err != nil {
		endUpstreamSpan(span, err)
		writeError(w, r, dialectOpenAI, err)
		return
	}
	defer stream.Close()

	flusher := prepareSSEResponse(w)
	converter := convert.NewStreamConverter(s.cache, "", anthReq.Model)
	tracer := s.traceStream(r, "chat.completions.anthropic")
	defer tracer.Close()
	for {
		ev, ok := stream.Next(spanCtx)
		if !ok {
			telemetry.AddEvent(spanCtx, "stream_complete")
			endUpstreamSpan(span, nil)
			writeSSEDone(w, flusher)
			return
		}
		tracer.LogSource(ev.Data)
		chunks, done := converter.Feed(ev)
		for _, c := range chunks {
			data, _ := json.Marshal(c)
			tracer.LogConverted(string(data))
			writeJSONSSEEvent(w, flusher, data)
			if c.Error != nil {
				telemetry.RecordError(spanCtx, gwerrors.UpstreamTransport(c.Error.Message, nil))
			}
		}
		if done {
			endUpstreamSpan(span, nil)
			writeSSEDone(w, flusher)
			return
		}
	}
}

// handleResponses is the Responses-API front door: same Codex
// driver as the chat/completions branch, native Responses request/stream
// shape in both directions.
func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, dialectOpenAI, err)
		return
	}

	var req convert.ResponsesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, dialectOpenAI, gwerrors.ClientMalformed("body", "malformed JSON body"))
		return
	}
	if req.Model == "" {
		req.Model = s.config.DefaultModel
	}
	if req.Model == "" {
		writeError(w, r, dialectOpenAI, gwerrors.ClientMalformed("model", "model is required"))
		return
	}

	resolution := s.registry.Resolve(req.Model)
	req.Model = resolution.BackendID

	bundle, err := s.chatgptCreds.Get(r.Context())
	if err != nil {
		writeError(w, r, dialectOpenAI, err)
		return
	}
	auth := upstream.CodexAuth{AccessToken: bundle.AccessToken, AccountID: bundle.AccountID}

	spanCtx, span := startUpstreamSpan(r.Context(), "upstream.responses",
		attribute.String("model", req.Model), attribute.Bool("stream", req.Stream))

	wantStream := req.Stream
	stream, err := s.responsesDriver.Stream(spanCtx, &req, auth)
	if err != nil {
		endUpstreamSpan(span, err)
		writeError(w, r, dialectOpenAI, err)
		return
	}
	defer stream.Close()

	if !wantStream {
		collector := convert.NewResponsesCollector()
		for {
			ev, ok := stream.Next(spanCtx)
			if !ok {
				break
			}
			if collector.Feed(ev) {
				break
			}
		}
		if msg := collector.Err(); msg != "" {
			err := gwerrors.UpstreamStatus(http.StatusBadGateway, msg)
			endUpstreamSpan(span, err)
			writeError(w, r, dialectOpenAI, err)
			return
		}
		endUpstreamSpan(span, nil)
		writeJSON(w, http.StatusOK, collector.Result(req.Model))
		return
	}

	flusher := prepareSSEResponse(w)
	for {
		ev, ok := stream.Next(spanCtx)
		if !ok {
			endUpstreamSpan(span, nil)
			return
		}
		writeRawSSEEvent(w, flusher, ev)
		if ev.Event == "response.completed" {
			endUpstreamSpan(span, nil)
			return
		}
		if ev.Event == "response.failed" || ev.Event == "error" {
			endUpstreamSpan(span, gwerrors.UpstreamTransport("stream terminated: "+ev.Event, nil))
			return
		}
	}
}
