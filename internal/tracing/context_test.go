package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventContext(t *testing.T) {
	ctx := NewEventContext(context.Background(), "session.idle", "ses_123")

	assert.NotEmpty(t, GetTraceID(ctx))
	assert.Equal(t, "session.idle", GetEventType(ctx))
	assert.Equal(t, "ses_123", GetSessionID(ctx))
}

func TestNewEventContextWithoutSession(t *testing.T) {
	ctx := NewEventContext(context.Background(), "server.connected", "")

	assert.NotEmpty(t, GetTraceID(ctx))
	assert.Empty(t, GetSessionID(ctx))
}

func TestTraceIDsAreUnique(t *testing.T) {
	a := GetTraceID(NewEventContext(context.Background(), "x", ""))
	b := GetTraceID(NewEventContext(context.Background(), "x", ""))
	assert.NotEqual(t, a, b)
}

func TestGettersOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSessionID(ctx))
	assert.Empty(t, GetEventType(ctx))
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithSessionID(ctx, "ses_9")

	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("handled")

	out := buf.String()
	assert.Contains(t, out, `"trace_id":"trace-1"`)
	assert.Contains(t, out, `"session_id":"ses_9"`)
	assert.NotContains(t, out, "event_type")
}

func TestStartSpanKeepsExistingTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "fixed")

	spanCtx, span := StartSpan(ctx, "dispatch")
	defer span.End()

	require.NotNil(t, span)
	assert.Equal(t, "fixed", GetTraceID(spanCtx))
}
