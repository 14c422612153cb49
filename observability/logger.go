// Package observability provides the structured logger and the runtime
// counters surfaced on /healthz and in the heartbeat log.
package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a text slog handler from a level name.
// Unknown names fall back to info rather than failing startup.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
