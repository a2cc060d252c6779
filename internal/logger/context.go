package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger returns a child context carrying the logger,
// usually one already annotated with the request id.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// LoggerFrom returns the logger stored in the context, reporting whether
// one was attached. Callers with their own logger use this to fall back.
func LoggerFrom(ctx context.Context) (*zap.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	return l, ok
}

// FromContext returns the logger stored in the context, or a nop
// logger when none was attached.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := LoggerFrom(ctx); ok {
		return l
	}
	return zap.NewNop()
}
