// Package logging provides structured logging configuration for swifile.
//
// Logging Strategy:
// - JSON format so the caller and the helper share one parseable format
// - Source locations included for debugging (file:line)
// - Log levels configurable via config file or flag (debug, info, warn, error)
// - The helper logs to stderr; its stdout carries results only
//
// Usage:
//
//	logger := logging.SetupLogger(os.Stderr, "info")
//	logger.Info("action description", "key", value, "component", "rootfs")
//
// Helper usage, leaving the slog default alone:
//
//	logger := logging.NewLogger(os.Stderr, "error")
package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// SetupLogger creates a JSON logger writing to w and sets it as the slog
// default. The level parameter accepts: "debug", "info", "warn", "error"
// (case-insensitive). Invalid levels default to "info".
func SetupLogger(w io.Writer, level string) *slog.Logger {
	logger := NewLogger(w, level)

	// Set as default for global access via slog.Info(), slog.Error(), etc.
	slog.SetDefault(logger)

	return logger
}

// NewLogger creates a JSON logger writing to w without touching the slog
// default.
func NewLogger(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: shortenSource,
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// shortenSource trims source paths to start at internal/ or cmd/.
func shortenSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	source, ok := a.Value.Any().(*slog.Source)
	if !ok {
		return a
	}
	source.File = trimToPackage(source.File, filepath.Base(source.File))
	source.Function = trimToPackage(source.Function, source.Function)
	return a
}

func trimToPackage(s, fallback string) string {
	for _, marker := range []string{"internal/", "cmd/"} {
		if idx := strings.Index(s, marker); idx != -1 {
			return s[idx:]
		}
	}
	return fallback
}

// parseLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// WithComponent returns a logger with a pre-set component attribute.
//
//	locLog := logging.WithComponent(logger, "rootfs")
//	locLog.Info("root located") // includes "component": "rootfs"
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}
