// Package logger builds the slog.Logger shared by the fler commands.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a logger writing to stderr.
func New(level slog.Level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a logger writing to w. Format is "json" or "text";
// anything else is text.
func NewWithWriter(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts a configured level name. Unknown names yield warn,
// the quiet default of the command line tools.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LevelFromFlags lowers base according to the -v and -d flags. Debug wins
// over verbose; neither flag can raise the level.
func LevelFromFlags(base slog.Level, verbose, debug bool) slog.Level {
	switch {
	case debug:
		return min(base, slog.LevelDebug)
	case verbose:
		return min(base, slog.LevelInfo)
	default:
		return base
	}
}
