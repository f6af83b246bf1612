package audit

import (
	"context"
	"log/slog"
)

// SlogLogger adapts Event onto a log/slog.Logger: successes at Info,
// protocol-level failures at Warn, internal failures at Error.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

func (a *SlogLogger) Log(e Event) {
	attrs := []slog.Attr{
		slog.String("event_id", e.ID),
		slog.String("endpoint", e.Endpoint),
		slog.String("idc", e.IDc),
		slog.String("outcome", string(e.Outcome)),
		slog.Duration("latency", e.Latency),
	}

	level := slog.LevelInfo
	switch e.Outcome {
	case OutcomeInternal:
		level = slog.LevelError
	case OutcomeDecodeError, OutcomeAlreadyExists, OutcomeUnauthorized, OutcomeRateLimited:
		level = slog.LevelWarn
	}

	a.logger.LogAttrs(context.Background(), level, "pake_endpoint", attrs...)
}

var _ Logger = (*SlogLogger)(nil)
