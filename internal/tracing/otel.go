package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of every sessionhooks span.
const TracerName = "github.com/harun/sessionhooks"

// Span attributes recorded on dispatch spans
const (
	AttrEventType = attribute.Key("sessionhooks.event.type")
	AttrSessionID = attribute.Key("sessionhooks.session.id")
	AttrTool      = attribute.Key("sessionhooks.tool")
)

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// InitOpenTelemetry installs the global tracer provider for the daemon. It is a
// no-op while a provider is already installed.
func InitOpenTelemetry(serviceName string) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	if provider != nil {
		return nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// ShutdownOpenTelemetry flushes the daemon's provider and puts a no-op one in
// its place, so a later InitOpenTelemetry starts fresh.
func ShutdownOpenTelemetry(ctx context.Context) error {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()

	if tp == nil {
		return nil
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
	return tp.Shutdown(ctx)
}

// StartSpan opens a span under TracerName. A context without a trace ID takes
// the span's, so log lines and spans share one ID.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := otel.Tracer(TracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
	if GetTraceID(ctx) != "" {
		return ctx, span
	}
	if sc := span.SpanContext(); sc.IsValid() {
		ctx = WithTraceID(ctx, sc.TraceID().String())
	}
	return ctx, span
}

// EventAttributes describes a dispatched host event on a span
func EventAttributes(eventType, sessionID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrEventType.String(eventType)}
	if sessionID != "" {
		attrs = append(attrs, AttrSessionID.String(sessionID))
	}
	return attrs
}
