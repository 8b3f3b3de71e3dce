package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
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

// SlogLevel maps a LogLevel to the corresponding slog.Level.
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

// ParseLevel converts a level name (case-sensitive, as used in config and
// env vars) to a LogLevel. Unknown names map to LevelInfo.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

var defaultLogger *slog.Logger

// levelVar holds the active log level so it can be adjusted at runtime on
// configuration reload.
var levelVar slog.LevelVar

// DefaultSessionIDPrefixLength is the number of session ID characters shown
// in log output when no explicit length has been configured.
const DefaultSessionIDPrefixLength = 8

// sessionIDPrefixLength holds the configured display length for session IDs
// in logs. Stored atomically because it can be changed by a config reload
// while request goroutines are logging.
var sessionIDPrefixLength atomic.Int32

func init() {
	sessionIDPrefixLength.Store(DefaultSessionIDPrefixLength)
}

// Init initializes the logging system. It should be called once at
// application startup, before any log calls.
//
// For stdio transports the output MUST be os.Stderr so that log lines do
// not interleave with the JSON-RPC protocol stream on stdout.
func Init(level LogLevel, output io.Writer) {
	levelVar.Set(level.SlogLevel())
	opts := &slog.HandlerOptions{
		Level: &levelVar,
	}
	defaultLogger = slog.New(slog.NewTextHandler(output, opts))
	slog.SetDefault(defaultLogger)
}

// SetLevel changes the active log level at runtime.
func SetLevel(level LogLevel) {
	levelVar.Set(level.SlogLevel())
}

// SetSessionIDPrefixLength configures how many characters of a session ID
// are shown by TruncateSessionID. Values below 1 reset to the default.
func SetSessionIDPrefixLength(n int) {
	if n < 1 {
		n = DefaultSessionIDPrefixLength
	}
	sessionIDPrefixLength.Store(int32(n))
}

// TruncateSessionID returns a shortened form of a session ID that is safe
// to include in log messages. Full session IDs are treated as sensitive
// because they authorize session reuse.
func TruncateSessionID(sessionID string) string {
	n := int(sessionIDPrefixLength.Load())
	if len(sessionID) <= n {
		return sessionID
	}
	return sessionID[:n] + "..."
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}

	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}
