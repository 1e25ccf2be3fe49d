package logging

import (
	"context"
)

type contextKey int

const correlationIDKey contextKey = iota

// WithCorrelationIDCtx returns a context carrying the correlation ID.
// Commands set one per invocation so every entry logged under that
// context can be tied back to the run.
func WithCorrelationIDCtx(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromCtx returns the context's correlation ID, or "" when
// none is set.
func CorrelationIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ContextLogger returns base stamped with the context's correlation ID.
// A nil base falls back to the global logger.
func ContextLogger(ctx context.Context, base *Logger) *Logger {
	if base == nil {
		base = Global()
	}
	if id := CorrelationIDFromCtx(ctx); id != "" {
		base = base.WithCorrelationID(id)
	}
	return base
}
