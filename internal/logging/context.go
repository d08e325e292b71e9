// Package logging carries a request-scoped slog.Logger and correlation ids
// through context.Context.
package logging

import (
	"context"
	"log/slog"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
	traceIDKey   struct{}
	spanIDKey    struct{}
)

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger := value[*slog.Logger](ctx, loggerKey{}); logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores the id assigned to the inbound HTTP request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	return value[string](ctx, requestIDKey{})
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withString(ctx, traceIDKey{}, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	return value[string](ctx, traceIDKey{})
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	return withString(ctx, spanIDKey{}, spanID)
}

func SpanIDFromContext(ctx context.Context) string {
	return value[string](ctx, spanIDKey{})
}

func withString(ctx context.Context, key any, v string) context.Context {
	if ctx == nil || v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func value[T any](ctx context.Context, key any) T {
	var zero T
	if ctx == nil {
		return zero
	}
	if v, ok := ctx.Value(key).(T); ok {
		return v
	}
	return zero
}
