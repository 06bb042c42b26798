// Package logging wraps log/slog with component-scoped loggers so every
// line carries which part of the engine emitted it.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Standard field names.
const (
	FieldComponent  = "component"
	FieldCollection = "collection"
	FieldRecordID   = "record_id"
	FieldPartition  = "partition"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldActor      = "actor"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentMigration = "migration"
	ComponentLedger    = "ledger"
)

// Logger is a slog.Logger that always tags its component.
type Logger struct {
	*slog.Logger
	component string
}

// New creates a text logger at the given level writing to stdout.
func New(level slog.Level, component string) *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}
}

// NewWithHandler creates a logger over an existing handler. Tests use this
// to capture output.
func NewWithHandler(handler slog.Handler, component string) *Logger {
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}
}

// WithComponent returns a logger tagged with a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// With returns a logger with extra attributes attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// Component returns the logger's component name.
func (l *Logger) Component() string { return l.component }

// ParseLevel maps a config string to a slog level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
