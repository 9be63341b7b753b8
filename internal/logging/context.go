package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// scope is everything this package keeps on a context: the request-scoped
// logger and the identifiers it has been tagged with.
type scope struct {
	logger    *slog.Logger
	requestID string
	traceID   string
	spanID    string
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(ctxKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeFrom(ctx)
	update(&s)
	return context.WithValue(ctx, ctxKey{}, s)
}

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return withScope(ctx, func(s *scope) { s.logger = logger })
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger := scopeFrom(ctx).logger; logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID tags the context with the X-Request-ID of the call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return withScope(ctx, func(s *scope) { s.requestID = requestID })
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// WithTraceID stores a trace identifier on the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if ctx == nil || traceID == "" {
		return ctx
	}
	return withScope(ctx, func(s *scope) { s.traceID = traceID })
}

// TraceIDFromContext retrieves the trace identifier from the context.
func TraceIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).traceID
}

// WithSpanID stores the current span identifier on the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	if ctx == nil || spanID == "" {
		return ctx
	}
	return withScope(ctx, func(s *scope) { s.spanID = spanID })
}

// SpanIDFromContext retrieves the span identifier from the context.
func SpanIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).spanID
}
