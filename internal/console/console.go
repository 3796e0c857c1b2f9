// Package console builds the process-wide logger shared by every worker and
// the monitor. All console output flows through a single locked core, so
// concurrent goroutines cannot interleave a line mid-write; each worker logs
// through a named sub-logger whose name is the worker tag shown on the line.
package console

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink is the mutually-exclusive console output channel. It wraps the shared
// zap logger; hand workers their tagged logger via Named.
type Sink struct {
	root *zap.Logger
}

// New creates a sink writing human-readable lines to stdout and, when file is
// non-empty, structured JSON to that file as well. The level string accepts
// debug, info, warn and error; anything else means info.
func New(level, file string) *Sink {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := ParseLevel(level)

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		lvl,
	)

	cores := []zapcore.Core{consoleCore}

	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(f),
				lvl,
			)
			cores = append(cores, fileCore)
		}
	}

	return &Sink{root: zap.New(zapcore.NewTee(cores...))}
}

// NewWithSyncer creates a sink over the given write syncer. Used by tests to
// capture output; the syncer is wrapped in the same lock as the stdout core.
func NewWithSyncer(lvl zapcore.Level, ws zapcore.WriteSyncer) *Sink {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(ws),
		lvl,
	)
	return &Sink{root: zap.New(core)}
}

// Logger returns the untagged root logger for orchestrator-level messages.
func (s *Sink) Logger() *zap.Logger {
	return s.root
}

// Named returns the tagged logger for one worker; the tag appears on every
// line that worker emits.
func (s *Sink) Named(tag string) *zap.Logger {
	return s.root.Named(tag)
}

// Sync flushes buffered output. Called once on process exit.
func (s *Sink) Sync() error {
	return s.root.Sync()
}

// ParseLevel maps a config level string to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
