package gateway

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jkh/llm-gateway/pkg/telemetry"
)

var upstreamTracer = telemetry.Tracer("llm-gateway.upstream")

// startUpstreamSpan opens a span around one upstream driver call or
// streaming conversion. The returned span must be ended by the caller;
// endUpstreamSpan does that and records err, if any.
func startUpstreamSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return upstreamTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endUpstreamSpan records err (if non-nil) on span and closes it.
func endUpstreamSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
