package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitAndShutdownOpenTelemetry(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("sessionhooks-test"))
	require.NoError(t, InitOpenTelemetry("sessionhooks-test"), "second init is a no-op")

	ctx, span := StartSpan(context.Background(), "dispatch")
	assert.True(t, span.SpanContext().IsValid())
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	span.End()

	require.NoError(t, ShutdownOpenTelemetry(context.Background()))
	require.NoError(t, ShutdownOpenTelemetry(context.Background()), "shutdown without a provider")

	// a new provider can be installed after shutdown
	require.NoError(t, InitOpenTelemetry("sessionhooks-test"))
	_, span = StartSpan(context.Background(), "dispatch")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, ShutdownOpenTelemetry(context.Background()))
}

func TestEventAttributes(t *testing.T) {
	assert.Equal(t, []attribute.KeyValue{
		AttrEventType.String("session.idle"),
		AttrSessionID.String("ses_1"),
	}, EventAttributes("session.idle", "ses_1"))

	assert.Equal(t, []attribute.KeyValue{AttrEventType.String("server.connected")}, EventAttributes("server.connected", ""))
}
