package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Log contains the structured logging settings.
type Log struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, or error
	Format string `yaml:"format,omitempty"` // text or json

	level slog.Level
}

// ValidateAndNormalize parses the level and fills the defaults, that
// is, the info level and the text format.
func (l *Log) ValidateAndNormalize() error {
	if l.Level == "" {
		l.Level = "info"
	}
	if err := l.level.UnmarshalText([]byte(l.Level)); err != nil {
		return fmt.Errorf("level: %w", err)
	}
	switch l.Format = strings.ToLower(l.Format); l.Format {
	case "":
		l.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %q", l.Format)
	}
	return nil
}

// NewHandler creates a slog handler which writes to w.
func (l Log) NewHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: l.level, AddSource: true}
	if l.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Install makes a handler which writes to w the default slog handler.
func (l Log) Install(w io.Writer) {
	slog.SetDefault(slog.New(l.NewHandler(w)))
}
