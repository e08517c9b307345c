package trafficos

import (
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/kainat5008/Traffic-System-OS/gate"
)

// Logger wraps slog.Logger with allocation-specific field helpers so every
// component logs the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler gets a
// text handler to stderr at Info.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger with human-readable output at the given
// minimum level.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger with JSON output at the given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(math.MaxInt),
	}))}
}

// WithClient tags the logger with a client name.
func (l *Logger) WithClient(name string) *Logger {
	return &Logger{Logger: l.Logger.With("client", name)}
}

// WithClass tags the logger with a resource class name.
func (l *Logger) WithClass(name string) *Logger {
	return &Logger{Logger: l.Logger.With("class", name)}
}

// LogAcquire logs one acquisition attempt. Grants and routine denials are
// debug noise; faults warrant a warning.
func (l *Logger) LogAcquire(client, class string, outcome gate.Outcome, err error) {
	switch outcome {
	case gate.Granted:
		l.Debug("resource granted", "client", client, "class", class)
	case gate.Denied:
		l.Debug("resource denied, retry later", "client", client, "class", class, "reason", err)
	default:
		l.Warn("resource acquisition failed", "client", client, "class", class, "error", err)
	}
}

// LogRelease logs one release.
func (l *Logger) LogRelease(client, class string, err error) {
	if err != nil {
		l.Warn("resource release failed", "client", client, "class", class, "error", err)
		return
	}
	l.Debug("resource released", "client", client, "class", class)
}

// LogReap logs a reap pass over a client's holdings.
func (l *Logger) LogReap(client string, err error) {
	if err != nil {
		l.Warn("reap failed", "client", client, "error", err)
		return
	}
	l.Info("reaped client holdings", "client", client)
}
