package logging

import (
	"io"
	"log/slog"
	"os"
)

// New builds the process-wide JSON logger at the given level. Consistency
// failures in the ledger are reported through it, so an unknown level string
// falls back to info instead of silencing anything.
func New(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// Discard returns a logger for tests that swallows everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
