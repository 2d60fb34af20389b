package resolver

import (
	"log/slog"

	"github.com/go-logr/logr"
)

// Logger is the interface that refresolver uses for structured logging.
//
// The interface is minimal and follows the log/slog convention of
// alternating key-value pairs for attributes:
//
//	logger.Debug("resolved reference", "ref", "common.yaml#/Pet", "depth", 1)
//
// # Usage with log/slog
//
// Use [NewSlogAdapter] to wrap a standard library slog.Logger:
//
//	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
//	r, err := resolver.New(resolver.WithLogger(resolver.NewSlogAdapter(slog.New(handler))))
//
// # Usage with logr
//
// Use [NewLogrAdapter] to wrap a logr.Logger, as handed out by
// controller-runtime and other Kubernetes tooling:
//
//	r, err := resolver.New(resolver.WithLogger(resolver.NewLogrAdapter(log)))
type Logger interface {
	// Debug logs at debug level. Use for detailed diagnostic information.
	Debug(msg string, attrs ...any)

	// Info logs at info level. Use for general operational information.
	Info(msg string, attrs ...any)

	// Warn logs at warn level. Use for potentially harmful situations.
	Warn(msg string, attrs ...any)

	// Error logs at error level. Use for error conditions.
	Error(msg string, attrs ...any)

	// With returns a new Logger with the given attributes prepended to every log.
	With(attrs ...any) Logger
}

// NopLogger is a no-op logger that discards all output.
// It is the default logger used when no logger is configured.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(_ string, _ ...any) {}

// Info implements Logger.
func (NopLogger) Info(_ string, _ ...any) {}

// Warn implements Logger.
func (NopLogger) Warn(_ string, _ ...any) {}

// Error implements Logger.
func (NopLogger) Error(_ string, _ ...any) {}

// With implements Logger.
func (n NopLogger) With(_ ...any) Logger { return n }

var _ Logger = NopLogger{}

// SlogAdapter wraps a *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug implements Logger.
func (s *SlogAdapter) Debug(msg string, attrs ...any) { s.logger.Debug(msg, attrs...) }

// Info implements Logger.
func (s *SlogAdapter) Info(msg string, attrs ...any) { s.logger.Info(msg, attrs...) }

// Warn implements Logger.
func (s *SlogAdapter) Warn(msg string, attrs ...any) { s.logger.Warn(msg, attrs...) }

// Error implements Logger.
func (s *SlogAdapter) Error(msg string, attrs ...any) { s.logger.Error(msg, attrs...) }

// With implements Logger.
func (s *SlogAdapter) With(attrs ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(attrs...)}
}

var _ Logger = (*SlogAdapter)(nil)

// LogrAdapter wraps a logr.Logger to implement the Logger interface.
//
// Debug maps to V(1); Info and Warn map to V(0), with Warn adding a
// "level"="warn" pair; Error maps to logr's Error with a nil error.
type LogrAdapter struct {
	logger logr.Logger
}

// NewLogrAdapter creates a new LogrAdapter.
func NewLogrAdapter(logger logr.Logger) *LogrAdapter {
	return &LogrAdapter{logger: logger}
}

// Debug implements Logger.
func (l *LogrAdapter) Debug(msg string, attrs ...any) { l.logger.V(1).Info(msg, attrs...) }

// Info implements Logger.
func (l *LogrAdapter) Info(msg string, attrs ...any) { l.logger.Info(msg, attrs...) }

// Warn implements Logger.
func (l *LogrAdapter) Warn(msg string, attrs ...any) {
	l.logger.Info(msg, append([]any{"level", "warn"}, attrs...)...)
}

// Error implements Logger.
func (l *LogrAdapter) Error(msg string, attrs ...any) { l.logger.Error(nil, msg, attrs...) }

// With implements Logger.
func (l *LogrAdapter) With(attrs ...any) Logger {
	return &LogrAdapter{logger: l.logger.WithValues(attrs...)}
}

var _ Logger = (*LogrAdapter)(nil)
