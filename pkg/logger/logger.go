package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger interface for logging functionality
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// ZeroLogger implements the Logger interface on top of zerolog
type ZeroLogger struct {
	log zerolog.Logger
}

// New creates a new logger instance writing to stderr.
// Verbose enables debug output; quiet suppresses everything below error.
func New(verbose, quiet bool) Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}
	return newWithZerologLevel(level)
}

// NewWithLevel creates a logger from a level name (debug, info, warn, error).
func NewWithLevel(level string) Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	return newWithZerologLevel(lvl)
}

// Nop returns a logger that discards all output
func Nop() Logger {
	return &ZeroLogger{log: zerolog.Nop()}
}

func newWithZerologLevel(level zerolog.Level) Logger {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
	return &ZeroLogger{log: log}
}

// Debug logs debug messages (only in verbose mode)
func (l *ZeroLogger) Debug(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

// Info logs informational messages
func (l *ZeroLogger) Info(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

// Warn logs warning messages
func (l *ZeroLogger) Warn(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

// Error logs error messages
func (l *ZeroLogger) Error(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}
