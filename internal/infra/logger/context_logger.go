package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Request-scoped keys follow OpenTelemetry attribute naming with a 'health.' prefix.
	RequestIDKey     ContextKey = "health.request.id"
	PipelineStageKey ContextKey = "health.pipeline.stage"
)

// WithRequestID adds the chat request id to context for observability
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithPipelineStage adds the current pipeline stage to context for observability
func WithPipelineStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, PipelineStageKey, stage)
}

// RequestIDFromContext returns the request id stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// ContextAttrsHandler adds request id and pipeline stage from the context to every record.
type ContextAttrsHandler struct {
	inner slog.Handler
}

// NewContextAttrsHandler wraps inner.
func NewContextAttrsHandler(inner slog.Handler) *ContextAttrsHandler {
	return &ContextAttrsHandler{inner: inner}
}

func (h *ContextAttrsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextAttrsHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
			r.AddAttrs(slog.String(string(RequestIDKey), id))
		}
		if stage, ok := ctx.Value(PipelineStageKey).(string); ok && stage != "" {
			r.AddAttrs(slog.String(string(PipelineStageKey), stage))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextAttrsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextAttrsHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextAttrsHandler) WithGroup(name string) slog.Handler {
	return &ContextAttrsHandler{inner: h.inner.WithGroup(name)}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
