package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// Format selects the encoding of emitted log records.
type Format string

const (
	// FormatLogfmt encodes records as logfmt key=value lines.
	FormatLogfmt Format = "logfmt"
	// FormatJSON encodes records as single-line JSON objects.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name, usually the value of
// PULLCONF_LOG_FORMAT. The empty string selects logfmt.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", string(FormatLogfmt):
		return FormatLogfmt, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format %q, expected %q or %q", name, FormatLogfmt, FormatJSON)
	}
}

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex
)

// Init initializes the process-wide logger. This should be called once at
// application startup, before any log helper is used. Every record carries
// the application name, its version and the process id so entries from
// pullconfd and pullconf can be told apart in a shared journal.
func Init(application, version string, format Format, level LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	logger := slog.New(handler).With(
		slog.String("application", application),
		slog.String("version", version),
		slog.Int("pid", os.Getpid()),
	)

	loggerMu.Lock()
	defaultLogger = logger
	loggerMu.Unlock()

	slog.SetDefault(logger) // Set for any global slog calls if necessary
}

func logInternal(level LogLevel, scope string, err error, messageFmt string, args ...interface{}) {
	loggerMu.RLock()
	logger := defaultLogger
	loggerMu.RUnlock()

	if logger == nil || !logger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("scope", scope))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}

	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Debug logs a debug message.
func Debug(scope string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, scope, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(scope string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, scope, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(scope string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, scope, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(scope string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, scope, err, messageFmt, args...)
}
