// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"taskboard/internal/config"

	log "github.com/sirupsen/logrus"
)

// Setup returns a logger writing to w with the configured level and formatter.
// Unknown levels fall back to info with a warning.
func Setup(cfg config.LogConfig, w io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: w != os.Stderr})
	}

	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(log.InfoLevel)
		logger.WithField("configured_level", cfg.Level).Warn("invalid log level, using info")
		return logger
	}
	logger.SetLevel(lvl)
	return logger
}

// OpenFile opens (appending) the TUI log file. An empty path selects
// $XDG_STATE_HOME/taskboard/taskboard.log (or the user cache dir).
func OpenFile(path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultFilePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func DefaultFilePath() string {
	if d := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); d != "" {
		return filepath.Join(d, "taskboard", "taskboard.log")
	}
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, "taskboard", "taskboard.log")
	}
	return filepath.Join(os.TempDir(), "taskboard.log")
}

// Discard is a logger for tests and callers that do not care about output.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
