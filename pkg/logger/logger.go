// Package logger is the leveled printf-style logger the parser reports
// through. Parsing a big report can log per line, so the level check is
// lock-free: a filtered message costs one atomic load and no allocation.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level orders log messages by importance. Messages below a logger's level
// are discarded.
type Level int32

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// String returns the level name as it appears in log lines.
func (l Level) String() string {
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
		return ""
	}
}

// ParseLevel resolves a level name such as "debug" or "WARN". "warning" and
// "off" are accepted as aliases.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "NONE", "OFF":
		return LevelNone, true
	default:
		return LevelNone, false
	}
}

// Logger writes timestamped, prefixed lines to one writer. All methods are
// safe for concurrent use; concurrent lines never interleave.
type Logger struct {
	level atomic.Int32

	mu     sync.Mutex
	w      io.Writer
	prefix string
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{w: w, prefix: "dsrf"}
	l.level.Store(int32(level))
	return l
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, LevelNone)
}

// SetLevel changes the logger's level.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// SetOutput redirects the logger to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w = w
}

// SetPrefix changes the prefix written with every line.
func (l *Logger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
}

// Enabled reports whether a message at the given level would be written.
func (l *Logger) Enabled(level Level) bool {
	return int32(level) >= l.level.Load()
}

// log formats one line as "[HH:MM:SS] prefix [LEVEL] message". The line is
// assembled off-lock and written in a single call so concurrent loggers do
// not interleave.
func (l *Logger) log(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	buf := make([]byte, 0, 64+len(format))
	buf = append(buf, '[')
	buf = time.Now().AppendFormat(buf, "15:04:05")
	buf = append(buf, "] "...)

	l.mu.Lock()
	defer l.mu.Unlock()
	buf = append(buf, l.prefix...)
	buf = append(buf, " ["...)
	buf = append(buf, level.String()...)
	buf = append(buf, "] "...)
	buf = fmt.Appendf(buf, format, args...)
	buf = append(buf, '\n')
	_, _ = l.w.Write(buf)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(os.Stderr, LevelInfo))
}

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// Debug logs a debug message on the default logger.
func Debug(format string, args ...any) {
	Default().Debug(format, args...)
}

// Info logs an info message on the default logger.
func Info(format string, args ...any) {
	Default().Info(format, args...)
}

// Warn logs a warning message on the default logger.
func Warn(format string, args ...any) {
	Default().Warn(format, args...)
}

// Error logs an error message on the default logger.
func Error(format string, args ...any) {
	Default().Error(format, args...)
}

// SetLevel changes the default logger's level.
func SetLevel(level Level) {
	Default().SetLevel(level)
}

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) {
	Default().SetOutput(w)
}

// Disable silences the default logger.
func Disable() {
	Default().SetLevel(LevelNone)
}
