// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"blog/backend/internal/config"
)

// New returns a logger for cfg and a close function for its output.
// With cfg.File set, output goes to a size-rotated file; otherwise to stderr.
func New(cfg config.Log) (*slog.Logger, func() error) {
	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		w, closeFn = lj, lj.Close
	}
	return NewWithWriter(w, cfg), closeFn
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(w io.Writer, cfg config.Log) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
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
