// Package log configures the process-wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"

	charmlog "charm.land/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	// File, when set, receives JSON logs with rotation instead of Writer.
	File string
	// Debug enables debug-level records.
	Debug bool
	// Writer receives human-readable logs. Defaults to stderr.
	Writer io.Writer
}

// New creates a logger for opts. The returned closer releases the log file,
// if any.
func New(opts Options) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // Max size in MB
			MaxBackups: 3,
			MaxAge:     30, // Days
			Compress:   false,
		}
		handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: level})
		return slog.New(handler), rotator
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	charmLevel := charmlog.InfoLevel
	if opts.Debug {
		charmLevel = charmlog.DebugLevel
	}
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmLevel,
		ReportTimestamp: opts.Debug,
	})
	return slog.New(handler), nopCloser{}
}

// Setup installs the logger for opts as the slog default.
func Setup(opts Options) io.Closer {
	logger, closer := New(opts)
	slog.SetDefault(logger)
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
