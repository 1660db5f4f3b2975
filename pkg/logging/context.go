package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext stores log in ctx so request-scoped code can log with the
// attrs the caller already attached.
func WithContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored by WithContext, or slog.Default
// when the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return slog.Default()
}
