package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "jan-server/midjourney-api"

// GetTracer returns the tracer for the midjourney-api service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartPhaseSpan starts a span for one generation phase (imagine, upscale, download, ...).
func StartPhaseSpan(ctx context.Context, phase string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "generation."+phase,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append([]attribute.KeyValue{attribute.String("generation.phase", phase)}, attrs...)...),
	)
}

// StartProviderSpan starts a span for an outbound call to an external provider.
func StartProviderSpan(ctx context.Context, provider, operation string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, provider+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", provider),
			attribute.String("provider.operation", operation),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
