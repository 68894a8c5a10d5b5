// Package logging configures the process-wide structured logger.
//
// mediarc logs through log/slog everywhere; components derive scoped
// loggers with slog.Default().With("component", ...). Setup installs the
// default logger once, from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"mediarc-hq/mediarc/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in plain text format.
	FormatText LogFormat = "text"
)

// ParseLevel converts a config string into a slog.Level. Unknown strings
// get Info.
func ParseLevel(s string) slog.Level {
	switch s {
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

// New builds a slog.Logger from the logging configuration, writing to w.
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	switch LogFormat(cfg.Format) {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// Setup builds a logger from configuration and installs it as the process
// default. Logs go to stderr so report output on stdout stays parseable.
func Setup(cfg config.LoggingConfig) error {
	logger, err := New(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
