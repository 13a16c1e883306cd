package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/jkh/llm-gateway/pkg/logger"
	"github.com/jkh/llm-gateway/pkg/oauth"
	"github.com/jkh/llm-gateway/pkg/registry"
	"github.com/jkh/llm-gateway/pkg/streamtrace"
	"github.com/jkh/llm-gateway/pkg/thinking"
	"github.com/jkh/llm-gateway/pkg/tokenstore"
	"github.com/jkh/llm-gateway/pkg/upstream"
)

// Config is the gateway's runtime configuration (the serve-time subset
// of the environment variables; the rest only matter to the CLI
// bootstrap).
type Config struct {
	BindAddress   string
	Port          int
	DefaultModel  string
	AnthropicPath string // ~/.anthropic-claude-max-proxy/tokens.json
	ChatGPTPath   string // ~/.chatgpt-local/tokens.json
	CatalogPath   string

	StreamTraceEnabled  bool
	StreamTraceDir      string
	StreamTraceMaxBytes int
}

// Server wires the Model Registry, Thinking Cache, credential managers,
// and upstream drivers behind gorilla/mux routes, mirroring the
// webui.Server layout (router + config + http.Server fields).
type Server struct {
	router *mux.Router
	config *Config
	server *http.Server

	registry *registry.Registry
	cache    *thinking.Cache

	anthropicCreds *CredentialManager
	chatgptCreds   *CredentialManager

	anthropicDriver *upstream.AnthropicDriver
	responsesDriver *upstream.ResponsesDriver
}

// NewServer builds a Server. The Model Registry is seeded from the static
// base specs plus an optional on-disk catalog overlay.
func NewServer(config *Config) (*Server, error) {
	reg := registry.New()
	reg.LoadBase(registry.BaseModels())
	if err := reg.LoadCatalogFile(config.CatalogPath); err != nil {
		return nil, err
	}

	s := &Server{
		router:          mux.NewRouter(),
		config:          config,
		registry:        reg,
		cache:           thinking.New(),
		anthropicCreds:  NewCredentialManager(tokenstore.NewStore(config.AnthropicPath), oauth.AnthropicProfile),
		chatgptCreds:    NewCredentialManager(tokenstore.NewStore(config.ChatGPTPath), oauth.OpenAIProfile),
		anthropicDriver: upstream.NewAnthropicDriver(),
		responsesDriver: upstream.NewResponsesDriver(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/v1/models", s.handleModels).Methods(http.MethodGet)
	s.router.HandleFunc("/models", s.handleModels).Methods(http.MethodGet)

	s.router.HandleFunc("/v1/messages", s.handleMessages).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/messages/count_tokens", s.handleCountTokens).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/beta/messages/count_tokens", s.handleCountTokens).Methods(http.MethodPost)

	s.router.HandleFunc("/v1/chat/completions", s.handleChatCompletions).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/responses", s.handleResponses).Methods(http.MethodPost)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/auth/status", s.handleAuthStatus).Methods(http.MethodGet)

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
}

type requestIDKeyType struct{}

var requestIDKey requestIDKeyType

// requestID returns the short id requestIDMiddleware tagged ctx's request
// with, or "" if none is present (e.g. in a unit test calling a handler
// directly).
func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestIDMiddleware tags every request with a short random id used in
// every subsequent log line for this request.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-Id", id)
		entry := logger.G(r.Context()).WithField("request_id", id)
		ctx := logger.WithLogger(r.Context(), entry)
		ctx = context.WithValue(ctx, requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware records duration and status for /v1/* paths only —
// health checks and auth-status polls would just be noise.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) < 3 || r.URL.Path[:3] != "/v1" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Start runs the HTTP server until ctx is cancelled. The listener
// goroutine and the shutdown-on-cancellation goroutine are bounded by
// one errgroup so either one's failure tears both down.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.BindAddress
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the listener without waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	anthropicStatus, _ := s.anthropicCreds.store.Status(ctx)
	chatgptStatus, _ := s.chatgptCreds.store.Status(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"anthropic": statusJSON(anthropicStatus),
		"chatgpt":   statusJSON(chatgptStatus),
	})
}

func statusJSON(st tokenstore.Status) map[string]any {
	return map[string]any{
		"present":        st.Present,
		"expired":        st.Expired,
		"expires_at":     st.ExpiresAt,
		"time_remaining": st.TimeRemaining.Seconds(),
		"type":           st.Type,
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	entries := s.registry.Listing()
	data := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		data = append(data, map[string]any{
			"id":       e.AdvertisedID,
			"object":   "model",
			"owned_by": e.OwnedBy,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"object": "list", "data": data})
}

// traceStream builds a request-scoped streamtrace.Tracer for route, or a nil
// (no-op) tracer when stream tracing is disabled.
func (s *Server) traceStream(r *http.Request, route string) *streamtrace.Tracer {
	return streamtrace.Maybe(s.config.StreamTraceEnabled, requestID(r.Context()), route, s.config.StreamTraceDir, s.config.StreamTraceMaxBytes)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
