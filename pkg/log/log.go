// Package log provides structured logging for NutriTrack on top of zerolog.
//
// Two styles are supported. Components hold a Logger obtained from
// GetLoggerWithName and log with key/value pairs:
//
//	logger := log.GetLoggerWithName("tree").With(log.ModelNameKey, "DecisionTreeClassifier")
//	logger.Info("Training completed", log.SamplesKey, 20, log.FeaturesKey, 7)
//
// Application code that wants zerolog's fluent API uses GetLogger:
//
//	log.GetLogger().Warn().Err(err).Str("phase", "prediction").Msg("rejected input")
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Common field keys.
const (
	ModelNameKey  = "model_name"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "n_samples"
	FeaturesKey   = "n_features"
	ClassesKey    = "n_classes"
	DurationMsKey = "duration_ms"
	PredsKey      = "n_predictions"
	DepthKey      = "depth"
	LeavesKey     = "n_leaves"
	RequestIDKey  = "request_id"
)

// Operation and phase values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationRender    = "render"
	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhaseStartup       = "startup"
)

// Logger is the key/value logging interface used by components.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) Logger
}

// LoggerProvider hands out named loggers sharing one output.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

// Options configures the global logger.
type Options struct {
	Level string
	// Format is "console" or "json".
	Format string
	// File, if set, receives JSON logs rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	global = newZerolog(os.Stderr, zerolog.InfoLevel, "console")
)

// ToLogLevel parses a level name, falling back to info.
func ToLogLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetupLogger configures the global logger for console output at the given level.
func SetupLogger(level string) {
	Configure(Options{Level: level, Format: "console"})
}

// Configure replaces the global logger. It returns a closer for the rotating
// file writer; the closer is a no-op when no file is configured.
func Configure(opts Options) io.Closer {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	writers = append(writers, os.Stderr)
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		closer = lj
		writers = append(writers, lj)
	}

	var out io.Writer
	if opts.Format == "json" {
		out = zerolog.MultiLevelWriter(writers...)
	} else {
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		if len(writers) > 1 {
			out = zerolog.MultiLevelWriter(console, writers[1])
		} else {
			out = console
		}
	}

	z := zerolog.New(out).Level(ToLogLevel(opts.Level)).With().Timestamp().Logger()

	mu.Lock()
	global = z
	mu.Unlock()
	return closer
}

// SetOutput points the global logger at w with JSON output. Used by tests.
func SetOutput(w io.Writer, level string) {
	z := newZerolog(w, ToLogLevel(level), "json")
	mu.Lock()
	global = z
	mu.Unlock()
}

// GetLogger returns the global zerolog logger.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	z := global
	return &z
}

// GetLoggerWithName returns a Logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return &zerologLogger{z: GetLogger().With().Str(ComponentKey, name).Logger()}
}

// LogError logs err at error level with its stack trace when available.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	GetLogger().Error().Err(err).Str("detail", detailed(err)).Msg(msg)
}

func newZerolog(w io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
