package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
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
	case LevelCritical:
		return "CRITICAL"
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
	case LevelCritical:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// LogEntry is a single log record handed to the installed Sink.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

// Sink receives every log entry regardless of the console level.
// Write only returns an error when the sink can no longer record entries at all.
type Sink interface {
	Write(entry LogEntry) error
}

// PathProvider is implemented by sinks that write to a file.
type PathProvider interface {
	LogPath() string
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	sink          Sink
)

// InitForCLI initializes console output at the given level.
// Entries below the level are still handed to the sink.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{
		Level: filterLevel.SlogLevel(), // This sets the minimum level for the handler
	}
	logger := slog.New(slog.NewTextHandler(output, opts))

	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// SetSink installs the sink that persists every entry. Passing nil detaches it.
func SetSink(s Sink) {
	mu.Lock()
	sink = s
	mu.Unlock()
}

// CurrentSink returns the installed sink, if any.
func CurrentSink() Sink {
	mu.RLock()
	defer mu.RUnlock()
	return sink
}

// LogPath returns the path of the file the sink writes to, or an empty string.
func LogPath() string {
	mu.RLock()
	s := sink
	mu.RUnlock()

	if p, ok := s.(PathProvider); ok {
		return p.LogPath()
	}
	return ""
}

// Reset detaches the sink and the console logger. Used by tests and on shutdown.
func Reset() {
	mu.Lock()
	defaultLogger = nil
	sink = nil
	mu.Unlock()
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	mu.RLock()
	console := defaultLogger
	s := sink
	mu.RUnlock()

	if console != nil && console.Enabled(context.Background(), level.SlogLevel()) {
		var slogAttrs []slog.Attr
		slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
		if err != nil {
			slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
		}
		console.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
	}

	if s == nil {
		return
	}

	entry := LogEntry{
		Timestamp: now,
		Level:     level,
		Subsystem: subsystem,
		Message:   msg,
		Err:       err,
	}
	if werr := s.Write(entry); werr != nil {
		// The sink already tried every fallback it has.
		fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] %s [%s] %s: %v\n", now.Format(time.RFC3339), level, msg, werr)
		panic(werr)
	}
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

// Critical logs a message about a failure the application cannot recover from.
func Critical(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelCritical, subsystem, err, messageFmt, args...)
}
