package ggview

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gogpu/gg"

	"github.com/gogpu/ggview/internal/logging"
)

// SetLogger configures the logger for ggview and all its sub-packages.
// By default, ggview produces no log output. Pass nil to disable logging
// again.
//
// The logger is also handed to gg, so rendering diagnostics share the same
// configuration.
//
// Log levels used by ggview:
//   - [slog.LevelDebug]: capture phases, layout passes, frames
//   - [slog.LevelInfo]: lifecycle events (view opened, snapshot saved)
//   - [slog.LevelWarn]: non-fatal issues (restore timeout, listener panic)
func SetLogger(l *slog.Logger) {
	logging.Set(l)
	gg.SetLogger(l)
}

// Logger returns the current logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}

// NewLogger builds a text or JSON logger writing to w at the configured
// level.
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("ggview: unsupported log.format %q", cfg.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("ggview: invalid log.level %q", s)
	}
	return level, nil
}
