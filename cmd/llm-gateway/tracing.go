package main

import (
	"context"

	"github.com/spf13/viper"

	"github.com/jkh/llm-gateway/pkg/telemetry"
)

func init() {
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.sampler", "ratio")
	viper.SetDefault("tracing.ratio", 1.0)
}

// initTracing wires pkg/telemetry's OpenTelemetry tracer from the
// tracing.* config keys; tracing is opt-in and a no-op shutdown is
// returned when disabled.
func initTracing(ctx context.Context) (func(context.Context) error, error) {
	cfg := telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    "llm-gateway",
		ServiceVersion: version,
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	}
	return telemetry.InitTracer(ctx, cfg)
}
