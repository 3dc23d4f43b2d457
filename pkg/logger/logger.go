// Package logger provides a simple, clean logging interface backed by zerolog.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Constants for logging operations.
const (
	callerSkipFrames = 3 // getCaller -> log -> logging method -> actual caller
	nameSeparator    = "."
)

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger defines the logging interface.
type Logger interface {
	// Context-aware variants
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

// zeroLogger implements Logger using zerolog.
type zeroLogger struct {
	zl   zerolog.Logger
	name string
}

func (l *zeroLogger) Named(name string) Logger {
	full := name
	if l.name != "" {
		full = l.name + nameSeparator + name
	}
	return &zeroLogger{zl: l.zl.With().Str("logger", full).Logger(), name: full}
}

func (l *zeroLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Info(), msg, fields)
}

func (l *zeroLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Error(), msg, fields)
}

func (l *zeroLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Debug(), msg, fields)
}

func (l *zeroLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Warn(), msg, fields)
}

func (l *zeroLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Error(), msg, fields)
	os.Exit(1)
}

func (l *zeroLogger) log(ctx context.Context, ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		return
	}
	ev = ev.Ctx(ctx).Str("source", getCaller())
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			ev = ev.AnErr(f.Key, err)
			continue
		}
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

// Option configures Init.
type Option func(*settings)

type settings struct {
	out    io.Writer
	format string
	level  string
}

// WithWriter sends output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// WithFormat selects json or console output.
func WithFormat(format string) Option {
	return func(s *settings) { s.format = strings.ToLower(strings.TrimSpace(format)) }
}

// WithLevel sets the initial level (debug, info, warn, error).
func WithLevel(level string) Option {
	return func(s *settings) { s.level = level }
}

var (
	mu     sync.RWMutex
	global Logger
)

// Init initializes the global logger.
func Init(opts ...Option) error {
	s := settings{out: os.Stdout, format: FormatJSON, level: "info"}
	for _, opt := range opts {
		opt(&s)
	}

	var out io.Writer
	switch s.format {
	case FormatJSON, "":
		out = s.out
	case FormatConsole:
		out = zerolog.ConsoleWriter{Out: s.out, TimeFormat: time.RFC3339}
	default:
		return fmt.Errorf("unknown log format: %s", s.format)
	}
	if err := SetLevelString(s.level); err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zl := zerolog.New(out).With().Timestamp().Logger()

	mu.Lock()
	global = &zeroLogger{zl: zl}
	mu.Unlock()
	return nil
}

// getCaller returns the caller location in format relative/path/file.go:line (IDE-friendly).
func getCaller() string {
	_, file, line, ok := runtime.Caller(callerSkipFrames)
	if !ok {
		return "unknown:0"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	relPath, err := filepath.Rel(cwd, file)
	if err != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return fmt.Sprintf("%s:%d", relPath, line)
}

// Get returns the global logger. Before Init it returns a logger that
// discards everything, so libraries and tests can log unconditionally.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return &zeroLogger{zl: zerolog.Nop()}
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	// zerolog writes synchronously; nothing to flush
	return nil
}

// SetLevel updates the current logging level for every logger.
func SetLevel(level zerolog.Level) { zerolog.SetGlobalLevel(level) }

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(zerolog.DebugLevel)
	case "", "info":
		SetLevel(zerolog.InfoLevel)
	case "warn", "warning":
		SetLevel(zerolog.WarnLevel)
	case "error":
		SetLevel(zerolog.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
