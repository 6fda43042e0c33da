// Package logging adapts appboot log entries to zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-appboot"
	"github.com/rs/zerolog"
)

// Config selects the zerolog output.
type Config struct {
	Level  string `env:"LEVEL" yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `env:"FORMAT" yaml:"format" validate:"oneof=json console"`
}

// Logger writes appboot.LogEntry values as zerolog events. Failed steps are
// logged at error level, everything else at debug level.
type Logger struct {
	zlog zerolog.Logger
}

var _ appboot.Logger = (*Logger)(nil)

// New wraps an existing zerolog logger.
func New(zlog zerolog.Logger) *Logger {
	return &Logger{zlog: zlog.With().Str("component", "appboot").Logger()}
}

// NewWriter builds a Logger writing to w according to cfg.
func NewWriter(w io.Writer, cfg Config) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zlog := zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(cfg.Level))
	return New(zlog)
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Log implements appboot.Logger.
func (l *Logger) Log(entry appboot.LogEntry) {
	event := l.zlog.Debug()
	if entry.Err != nil {
		event = l.zlog.Error().Err(entry.Err)
	}
	event = event.Str("stage", entry.Stage)
	if entry.Environment != "" {
		event = event.Str("environment", entry.Environment)
	}
	if entry.Duration > 0 {
		event = event.Dur("duration", entry.Duration)
	}
	if len(entry.Fields) > 0 {
		event = event.Fields(entry.Fields)
	}
	event.Msg(entry.Detail)
}
