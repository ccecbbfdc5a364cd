// Package logging provides structured logging for the botlist daemon and
// client packages, backed by zap.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
)

// Level represents the severity of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of a level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field represents a key-value pair attached to a log message.
type Field struct {
	Key   string
	Value interface{}
}

// Err creates an error field with key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger is the logging interface used throughout the module.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	WithFields(fields ...Field) Logger
}

// Config holds logger configuration.
type Config struct {
	Level  Level
	Output io.Writer // defaults to stdout
	Name   string    // optional logger name
}

// DefaultConfig returns a configuration driven by the LOG_LEVEL environment
// variable.
func DefaultConfig() Config {
	return Config{Level: ParseLevel(os.Getenv("LOG_LEVEL"))}
}

var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// SetGlobal replaces the global logger instance.
func SetGlobal(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Global returns the global logger, initializing a default one on first use.
func Global() Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()
	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewDefault()
	}
	return globalLogger
}

// NewDefault creates a logger with the default configuration. It panics if
// the logger cannot be constructed, which only happens on invalid config.
func NewDefault() Logger {
	logger, err := NewZapLogger(DefaultConfig())
	if err != nil {
		panic("logging: failed to initialize default logger: " + err.Error())
	}
	return logger
}
