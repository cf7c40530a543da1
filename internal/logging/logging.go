package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a logger writing to w, JSON when asJSON is set and logfmt-style
// text otherwise.
func New(w io.Writer, asJSON bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init sets the default slog logger on stderr.
// When outputIsJSON is true, logs are JSON too so a consumer of stdout NDJSON
// can parse stderr the same way. Otherwise logs are text for humans.
func Init(outputIsJSON bool, level slog.Level) {
	slog.SetDefault(New(os.Stderr, outputIsJSON, level))
}

// InitFile sets the default slog logger to append JSON to path. It is used
// when the terminal belongs to the interactive viewer. The returned function
// closes the file.
func InitFile(path string, level slog.Level) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	slog.SetDefault(New(f, true, level))
	return f.Close, nil
}

// Discard silences the default logger.
func Discard() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
