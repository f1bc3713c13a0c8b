package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/emilianohg/timegrid/internal/config"
)

// Open returns a logger appending to the timegrid log file. The TUI owns the
// terminal, so nothing is ever logged to stdout or stderr while it runs.
func Open(level string) (*slog.Logger, io.Closer, error) {
	logPath, err := config.LogPath()
	if err != nil {
		return nil, nil, err
	}

	if err := config.EnsureDirectories(); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	return New(f, level), f, nil
}

func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard is used where no log destination is configured (tests, one-shot commands).
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
