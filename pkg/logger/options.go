package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format selects the handler New builds.
type Format int

const (
	// FormatText is slog's key=value handler.
	FormatText Format = iota

	// FormatJSON is slog's JSON handler, one object per record.
	FormatJSON

	// FormatPretty is the colorized charmbracelet/log handler.
	FormatPretty
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatPretty:
		return "pretty"
	default:
		return "text"
	}
}

// ParseFormat accepts "text", "json" or "pretty", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "pretty":
		return FormatPretty, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// Option configures a logger created with New.
type Option func(*config)

// WithFormat picks the output handler.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithDebug is WithLevel(slog.LevelDebug) when true. False leaves the level
// untouched.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithWriter sets the destination. Calling it more than once writes to all of
// them.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = append(c.writers, w)
	}
}

// WithSource adds file:line to every record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
