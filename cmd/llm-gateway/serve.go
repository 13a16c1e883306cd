package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jkh/llm-gateway/pkg/gateway"
	"github.com/jkh/llm-gateway/pkg/logger"
	"github.com/jkh/llm-gateway/pkg/oauth"
	"github.com/jkh/llm-gateway/pkg/tokenstore"
	"github.com/jkh/llm-gateway/pkg/upstream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway's HTTP listener",
	Long: `Start the gateway's HTTP listener, which terminates Anthropic
Messages and OpenAI Chat Completions/Responses requests and forwards them
to the resolved upstream provider.

--headless skips the interactive menu and starts serving immediately —
the only mode this binary implements, since the interactive TUI menu is
an external collaborator outside this gateway's scope.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Bool("headless", true, "Start serving immediately without an interactive menu")
	serveCmd.Flags().String("bind", "", "Bind address (overrides BIND_ADDRESS)")
	serveCmd.Flags().Int("port", 0, "Port (overrides PORT)")
	viper.BindPFlag("bind_address", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command) {
	ctx := cmd.Context()

	upstream.Configure(
		viper.GetDuration("connect_timeout"),
		viper.GetDuration("read_timeout"),
		viper.GetDuration("request_timeout"),
		viper.GetDuration("stream_timeout"),
	)

	bind := viper.GetString("bind_address")
	if bind == "" {
		bind = "0.0.0.0"
	}
	port := viper.GetInt("port")
	if port == 0 {
		port = 8081
	}

	config := &gateway.Config{
		BindAddress:         net.JoinHostPort(bind, fmt.Sprintf("%d", port)),
		DefaultModel:        viper.GetString("default_model"),
		AnthropicPath:       tokenPath(oauth.ProviderAnthropic),
		ChatGPTPath:         tokenPath(oauth.ProviderOpenAI),
		CatalogPath:         viper.GetString("catalog_file"),
		StreamTraceEnabled:  viper.GetBool("stream_trace_enabled"),
		StreamTraceDir:      viper.GetString("stream_trace_dir"),
		StreamTraceMaxBytes: viper.GetInt("stream_trace_max_bytes"),
	}

	seedHeadlessAnthropicToken(ctx, config.AnthropicPath)

	server, err := gateway.NewServer(config)
	if err != nil {
		fail(err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.G(ctx).WithField("addr", config.BindAddress).Info("starting llm-gateway")
	fmt.Printf("llm-gateway listening on http://%s\n", config.BindAddress)

	if err := server.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("gateway server error")
		fail(err)
	}
}

// seedHeadlessAnthropicToken writes a long_term bundle from
// ANTHROPIC_OAUTH_TOKEN if set and no bundle is already on disk — the
// headless-mode seed. Failures are logged and swallowed: a bad seed value
// just leaves the gateway unauthenticated, surfaced as a normal 401 on
// first request rather than refusing to start.
func seedHeadlessAnthropicToken(ctx context.Context, path string) {
	token := viper.GetString("anthropic_oauth_token")
	if token == "" {
		return
	}
	store := tokenstore.NewStore(path)
	existing, err := store.Load(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to check existing token before headless seed")
		return
	}
	if existing != nil {
		return
	}

	bundle := &tokenstore.Bundle{
		AccessToken: token,
		TokenType:   tokenstore.TokenTypeLongTerm,
		ExpiresAt:   time.Now().AddDate(1, 0, 0).Unix(),
		LastRefresh: time.Now().Format(time.RFC3339),
	}
	if err := store.Save(ctx, bundle); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to seed headless Anthropic token")
	}
}
