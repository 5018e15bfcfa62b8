// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup()                          // INFO level, from LOG_LEVEL env
//	logging.SetupWithLevel(slog.LevelDebug)  // explicit level override
//	closer, err := logging.Configure(opts)   // console plus rotated file
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
//
// Every handler built here runs Redact over its attributes.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

// Options describes where logs go.
type Options struct {
	Level string
	// File enables a JSON log file rotated by size. Empty disables it.
	File string
	// MaxSizeMB and MaxFiles default to 10 and 5. Rotated files are gzipped.
	MaxSizeMB int
	MaxFiles  int
}

// Setup configures colored logging at the level specified by LOG_LEVEL env var
// (default: INFO).
func Setup() {
	SetupWithLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(consoleHandler(os.Stderr, level)))
}

// Configure installs the default logger described by opts. The returned
// closer flushes the log file and is a no-op when there is none.
func Configure(opts Options) (io.Closer, error) {
	level := ParseLevel(opts.Level)
	console := consoleHandler(os.Stderr, level)

	if opts.File == "" {
		slog.SetDefault(slog.New(console))
		return nopCloser{}, nil
	}

	writer, err := openLogFile(opts)
	if err != nil {
		return nil, err
	}
	file := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level, ReplaceAttr: Redact})

	slog.SetDefault(slog.New(fanout{console, file}))
	return writer, nil
}

// openLogFile creates the log directory and returns a lumberjack writer for opts.File.
func openLogFile(opts Options) (*lumberjack.Logger, error) {
	maxSize, maxFiles := opts.MaxSizeMB, opts.MaxFiles
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
		LocalTime:  true,
		Compress:   true,
	}, nil
}

func consoleHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  time.Kitchen,
		AddSource:   true,
		ReplaceAttr: Redact,
	})
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
