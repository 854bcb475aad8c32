package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for the per-event trace ID
	TraceIDKey ContextKey = "trace_id"
	// SessionIDKey is the context key for the host session an event belongs to
	SessionIDKey ContextKey = "session_id"
	// EventTypeKey is the context key for the host event type being handled
	EventTypeKey ContextKey = "event_type"
)

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithSessionID adds a session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithEventType adds the event type to the context
func WithEventType(ctx context.Context, eventType string) context.Context {
	return context.WithValue(ctx, EventTypeKey, eventType)
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetSessionID retrieves the session ID from the context
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// GetEventType retrieves the event type from the context
func GetEventType(ctx context.Context) string {
	if eventType, ok := ctx.Value(EventTypeKey).(string); ok {
		return eventType
	}
	return ""
}

// NewEventContext starts a trace for one host event delivery.
func NewEventContext(ctx context.Context, eventType, sessionID string) context.Context {
	ctx = WithTraceID(ctx, NewTraceID())
	ctx = WithEventType(ctx, eventType)
	if sessionID != "" {
		ctx = WithSessionID(ctx, sessionID)
	}
	return ctx
}

// LoggerFromContext adds the tracing fields present in ctx to a logger
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	lc := logger.With()
	if traceID := GetTraceID(ctx); traceID != "" {
		lc = lc.Str("trace_id", traceID)
	}
	if eventType := GetEventType(ctx); eventType != "" {
		lc = lc.Str("event_type", eventType)
	}
	if sessionID := GetSessionID(ctx); sessionID != "" {
		lc = lc.Str("session_id", sessionID)
	}
	return lc.Logger()
}
