package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: human-readable text on stderr at stderrLevel,
// JSON lines in cfg.LogFile at cfg.LogLevel.
// If the log file cannot be opened the logger writes to stderr only.
// The returned cleanup closes the file.
func SetupLogger(cfg Config, stderrLevel slog.Level) (*slog.Logger, func() error) {
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(textHandler(os.Stderr, stderrLevel))
		logger.Warn("log file unavailable, logging to stderr only", "file", cfg.LogFile, "error", err)
		return logger, func() error { return nil }
	}
	return fanout(os.Stderr, stderrLevel, file, cfg.LogLevel), file.Close
}

// SetupLoggerWithWriters creates the same fanout over arbitrary writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return fanout(stderr, level, file, level)
}

func fanout(stderr io.Writer, stderrLevel slog.Level, file io.Writer, fileLevel slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		textHandler(stderr, stderrLevel),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: fileLevel}),
	))
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
