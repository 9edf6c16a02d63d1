package benstream

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with benstream-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithStream adds the stream's mode and unit count to the logger.
func (l *Logger) WithStream(hdr Header) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			"mode", hdr.Mode.String(),
			"unit_count", hdr.UnitCount,
		),
	}
}

// LogEncodeProgress logs encoder progress.
func (l *Logger) LogEncodeProgress(steps, records uint64) {
	l.Debug("encode progress",
		"steps", steps,
		"records", records,
	)
}

// LogDecodeProgress logs decoder progress.
func (l *Logger) LogDecodeProgress(steps, records uint64) {
	l.Debug("decode progress",
		"steps", steps,
		"records", records,
	)
}

// LogClose logs stream finalization.
func (l *Logger) LogClose(steps, records uint64, err error) {
	if err != nil {
		l.Error("stream close failed",
			"steps", steps,
			"records", records,
			"error", err,
		)
	} else {
		l.Info("stream closed",
			"steps", steps,
			"records", records,
		)
	}
}

// LogIndexBuild logs a chunk index build.
func (l *Logger) LogIndexBuild(steps, records uint64, entries int, err error) {
	if err != nil {
		l.Error("chunk index build failed",
			"error", err,
		)
	} else {
		l.Info("chunk index built",
			"steps", steps,
			"records", records,
			"entries", entries,
		)
	}
}
