// Package logger provides the unified logging framework.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level aliases the zerolog level type.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config holds logger configuration.
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init initializes the global logger.
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stdout
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

// WithContext derives a logger from request context values.
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	if reqID, ok := ctx.Value("request_id").(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}
	if runID, ok := ctx.Value("run_id").(string); ok {
		l = l.With().Str("run_id", runID).Logger()
	}

	return &l
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info starts an info-level event.
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn starts a warn-level event.
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error starts an error-level event.
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal starts a fatal-level event.
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError starts an error-level event carrying err.
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// WithField derives a logger with one extra field.
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// RosterLogger is the roster engine component logger.
type RosterLogger struct {
	base *zerolog.Logger
}

// NewRosterLogger creates the roster engine logger.
func NewRosterLogger() *RosterLogger {
	l := Get().With().Str("component", "roster").Logger()
	return &RosterLogger{base: &l}
}

// StartRun logs the start of an optimization run.
func (l *RosterLogger) StartRun(runID string, shifts, days int) {
	l.base.Info().
		Str("run_id", runID).
		Int("shifts", shifts).
		Int("days", days).
		Msg("starting roster run")
}

// AttemptFinished logs the outcome of one pool-size attempt.
func (l *RosterLogger) AttemptFinished(runID string, drivers int, status string, elapsed time.Duration) {
	l.base.Info().
		Str("run_id", runID).
		Int("drivers", drivers).
		Str("status", status).
		Dur("elapsed", elapsed).
		Msg("attempt finished")
}

// RunComplete logs the end of an optimization run.
func (l *RosterLogger) RunComplete(runID string, drivers int, elapsed time.Duration) {
	l.base.Info().
		Str("run_id", runID).
		Int("drivers", drivers).
		Dur("elapsed", elapsed).
		Msg("roster run complete")
}

// RunFailed logs a terminal run failure.
func (l *RosterLogger) RunFailed(runID string, reason string, elapsed time.Duration) {
	l.base.Warn().
		Str("run_id", runID).
		Str("reason", reason).
		Dur("elapsed", elapsed).
		Msg("roster run failed")
}
