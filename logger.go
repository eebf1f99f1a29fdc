// Package hyperrotate defines a structured, multi-destination logging facility built around
// a rotating file sink.
//
// The package provides the shared vocabulary used by every sink in the module:
// - Leveled events (Trace, Debug, Info, Warn, Error, Fatal)
// - Structured key/value fields
// - The EventSink contract through which sinks report what they are doing
// - The rotation configuration and its fluent builder
//
// Concrete implementations live in sub-packages. The rotating package provides the
// size/age rotating file sink, the attrstore package tags archived files with extended
// attributes, the metalog package routes the sinks' own events to a console or to zap,
// and the configloader package reads the configuration from YAML, files and the environment.
//
// Basic usage:
//
//	cfg := hyperrotate.NewConfigBuilder().
//		WithPath("/var/log/app/app.log").
//		WithIdentifier("app").
//		WithMaxFileSize(10 * 1024 * 1024).
//		Build()
//
//	sink, err := rotating.New(*cfg)
//	if err != nil {
//		panic(err)
//	}
//	defer sink.Close()
//
//	sink.WriteString("application started")
//
// Sinks never print their own diagnostics. Opening, rotating and cleanup failures are
// delivered to the configured EventSink so the hosting application decides where they go.
package hyperrotate

import (
	"strings"

	"github.com/hyp3rd/ewrap"
)

// Level represents the severity of a log event.
type Level uint8

const (
	// TraceLevel represents verbose debugging information.
	TraceLevel Level = iota
	// DebugLevel represents debugging information.
	DebugLevel
	// InfoLevel represents general operational information.
	InfoLevel
	// WarnLevel represents warning messages.
	WarnLevel
	// ErrorLevel represents error messages.
	ErrorLevel
	// FatalLevel represents fatal error messages.
	FatalLevel
)

// String returns the string representation of a log level.
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the given Level is a valid log level, and false otherwise.
func (l Level) IsValid() bool {
	return l >= TraceLevel && l <= FatalLevel
}

// Enabled reports whether an event at level l passes a minimum level of minimum.
func (l Level) Enabled(minimum Level) bool {
	return l >= minimum
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal", "severe":
		return FatalLevel, nil
	default:
		return InfoLevel, ewrap.New("invalid log level").WithMetadata("level", level)
	}
}

// Field represents a key-value pair in structured logging.
type Field struct {
	Key   string
	Value any
}

// EventSink receives the informational and error events a sink produces about itself:
// files being opened, rotations, tagging and cleanup failures.
//
// Implementations must not write back into the sink that emitted the event.
type EventSink interface {
	// Event records a single event at the given level.
	Event(level Level, msg string, fields ...Field)
}

// EventSinkFunc adapts an ordinary function to the EventSink interface.
type EventSinkFunc func(level Level, msg string, fields ...Field)

// Event calls f(level, msg, fields...).
func (f EventSinkFunc) Event(level Level, msg string, fields ...Field) {
	f(level, msg, fields...)
}
