package authkit

import (
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the logging interface used throughout the package. Components
// accept any implementation; nil defaults to the shared no-op logger.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
}

// LogLevel controls which messages a StandardLogger emits.
type LogLevel int

const (
	// LogLevelDebug enables all log messages
	LogLevelDebug LogLevel = iota
	// LogLevelInfo enables info and error messages
	LogLevelInfo
	// LogLevelError enables only error messages
	LogLevelError
	// LogLevelNone disables all logging
	LogLevelNone
)

// ParseLogLevel converts a string log level to LogLevel.
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "info", "INFO":
		return LogLevelInfo
	case "error", "ERROR":
		return LogLevelError
	case "none", "NONE":
		return LogLevelNone
	default:
		return LogLevelInfo
	}
}

// StandardLogger implements Logger on top of Go's standard log package with
// separate output streams per level.
type StandardLogger struct {
	logError *log.Logger
	logInfo  *log.Logger
	logDebug *log.Logger
	level    LogLevel
}

// NewStandardLogger creates a StandardLogger with the given level. Nil
// writers are discarded.
func NewStandardLogger(level string, errorOutput, infoOutput, debugOutput io.Writer) *StandardLogger {
	if errorOutput == nil {
		errorOutput = io.Discard
	}
	if infoOutput == nil {
		infoOutput = io.Discard
	}
	if debugOutput == nil {
		debugOutput = io.Discard
	}

	return &StandardLogger{
		logError: log.New(errorOutput, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile),
		logInfo:  log.New(infoOutput, "INFO: ", log.Ldate|log.Ltime),
		logDebug: log.New(debugOutput, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile),
		level:    ParseLogLevel(level),
	}
}

// NewLogger creates a StandardLogger writing to stderr/stdout at the given level.
func NewLogger(level string) *StandardLogger {
	return NewStandardLogger(level, os.Stderr, os.Stdout, os.Stdout)
}

func (l *StandardLogger) Debug(msg string) {
	if l.level <= LogLevelDebug {
		l.logDebug.Print(msg)
	}
}

func (l *StandardLogger) Debugf(format string, args ...interface{}) {
	if l.level <= LogLevelDebug {
		l.logDebug.Printf(format, args...)
	}
}

func (l *StandardLogger) Info(msg string) {
	if l.level <= LogLevelInfo {
		l.logInfo.Print(msg)
	}
}

func (l *StandardLogger) Infof(format string, args ...interface{}) {
	if l.level <= LogLevelInfo {
		l.logInfo.Printf(format, args...)
	}
}

func (l *StandardLogger) Error(msg string) {
	if l.level <= LogLevelError {
		l.logError.Print(msg)
	}
}

func (l *StandardLogger) Errorf(format string, args ...interface{}) {
	if l.level <= LogLevelError {
		l.logError.Printf(format, args...)
	}
}

var (
	noopLogger     *StandardLogger
	noopLoggerOnce sync.Once
)

// NoopLogger returns the shared silent logger. Components fall back to it
// when constructed without a logger.
func NoopLogger() Logger {
	noopLoggerOnce.Do(func() {
		noopLogger = NewStandardLogger("none", io.Discard, io.Discard, io.Discard)
	})
	return noopLogger
}

func orNoopLogger(l Logger) Logger {
	if l == nil {
		return NoopLogger()
	}
	return l
}
