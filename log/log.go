// Package log provides structured logging handler construction for
// github.com/zenobiuszeto/json-io, built on [log/slog].
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format is the log output encoding.
type Format string

const (
	// FormatText renders each record as logfmt-style key=value pairs.
	FormatText Format = "text"
	// FormatJSON renders each record as a JSON object.
	FormatJSON Format = "json"
)

var (
	// ErrUnknownLevel indicates an unrecognized log level string.
	ErrUnknownLevel = errors.New("log: unknown level")
	// ErrUnknownFormat indicates an unrecognized log format string.
	ErrUnknownFormat = errors.New("log: unknown format")
)

// GetLevel parses a level string, case-insensitively.
func GetLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// GetFormat parses a format string, case-insensitively.
func GetFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if f == FormatText || f == FormatJSON {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// GetAllLevelStrings lists the accepted level names, for flag help text
// and shell completion.
func GetAllLevelStrings() []string {
	return []string{"debug", "info", "warn", "error"}
}

// GetAllFormatStrings lists the accepted format names.
func GetAllFormatStrings() []string {
	return []string{string(FormatText), string(FormatJSON)}
}

// NewHandler builds a slog.Handler writing to w in the given level and
// format.
func NewHandler(w io.Writer, level slog.Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewHandlerFromStrings is NewHandler taking level/format as the strings a
// CLI flag would supply.
func NewHandlerFromStrings(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := GetLevel(level)
	if err != nil {
		return nil, err
	}
	frmt, err := GetFormat(format)
	if err != nil {
		return nil, err
	}
	return NewHandler(w, lvl, frmt), nil
}
