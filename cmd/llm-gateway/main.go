// Package main provides the entry point for the llm-gateway CLI:
// subscription OAuth management plus the headless server bootstrap.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jkh/llm-gateway/pkg/logger"
)

func init() {
	viper.SetDefault("bind_address", "0.0.0.0")
	viper.SetDefault("port", 8081)
	viper.SetDefault("default_model", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")

	viper.SetDefault("connect_timeout", "10s")
	viper.SetDefault("read_timeout", "60s")
	viper.SetDefault("request_timeout", "120s")
	viper.SetDefault("stream_timeout", "600s")

	viper.SetDefault("stream_trace_enabled", false)
	viper.SetDefault("stream_trace_dir", "")
	viper.SetDefault("stream_trace_max_bytes", 256*1024)

	viper.SetDefault("anthropic_oauth_token", "")
	viper.SetDefault("token_file", "")
	viper.SetDefault("catalog_file", "")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.llm-gateway")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err == nil {
		logger.G(context.TODO()).WithField("config_file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

var rootCmd = &cobra.Command{
	Use:   "llm-gateway",
	Short: "A local multi-provider LLM API gateway",
	Long: `llm-gateway terminates Anthropic Messages and OpenAI Chat
Completions/Responses requests, authenticates to upstream providers using
subscription OAuth, and forwards calls while preserving streaming
semantics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	ctx := context.Background()

	cobra.OnInitialize(func() {
		if level := viper.GetString("log_level"); level != "" {
			if err := logger.SetLogLevel(level); err != nil {
				logger.G(ctx).WithField("log_level", level).WithError(err).Warn("invalid log level, using default")
			}
		}
		if format := viper.GetString("log_format"); format != "" {
			logger.SetLogFormat(format)
		}
	})

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (json, text, fmt)")
	rootCmd.PersistentFlags().String("token-file", "", "Override the Anthropic token file path")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("token_file", rootCmd.PersistentFlags().Lookup("token-file"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setupTokenCmd)

	shutdownTracing, err := initTracing(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
	} else {
		defer shutdownTracing(ctx)
	}

	rootCmd.SetContext(ctx)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(exitCodeFor(err))
	}
}
