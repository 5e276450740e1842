package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	// TraceIDKey is the context key for trace ID.
	TraceIDKey ctxKey = "trace_id"
	// ClientKey carries the caller identifier used for rate limiting.
	ClientKey ctxKey = "client"
)

// WithContext creates a child logger with trace_id and client if present.
func WithContext(logger Logger, ctx context.Context) Logger {
	if ctx == nil {
		return logger
	}

	var fields []zap.Field
	if v := stringValue(ctx, TraceIDKey); v != "" {
		fields = append(fields, zap.String("trace_id", v))
	}
	if v := stringValue(ctx, ClientKey); v != "" {
		fields = append(fields, zap.String("client", v))
	}

	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

func GetTraceID(ctx context.Context) string { return stringValue(ctx, TraceIDKey) }

func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func SetClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ClientKey, client)
}

type loggerKey struct{}

// FromContext returns the Logger stored in the context, or the global logger if none.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return Global()
	}
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Global()
}

// ToContext stores the Logger in the context.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func GetClient(ctx context.Context) string { return stringValue(ctx, ClientKey) }
