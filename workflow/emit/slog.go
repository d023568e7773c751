package emit

import (
	"context"
	"log/slog"
)

// SlogEmitter implements Emitter by logging events through a slog.Logger.
//
// This bridges the engine's event stream into an application's existing
// structured logging setup (JSON handler, tint, etc.). Failed events log at
// error level, everything else at info.
//
// Usage:
//
//	logger := slog.New(tint.NewHandler(os.Stderr, nil))
//	emitter := emit.NewSlogEmitter(logger)
type SlogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter creates a new SlogEmitter.
//
// A nil logger defaults to slog.Default().
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{logger: logger}
}

// Emit logs the event with its fields as structured attributes.
func (s *SlogEmitter) Emit(event Event) {
	attrs := []any{
		slog.String("thread_id", event.ThreadID),
	}
	if event.Node != "" {
		attrs = append(attrs, slog.String("node", event.Node))
	}
	if event.Payload != nil {
		attrs = append(attrs, slog.Any("payload", event.Payload))
	}

	level := slog.LevelInfo
	if event.Kind == KindFailed {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, string(event.Kind), attrs...)
}
