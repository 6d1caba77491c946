package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// serviceName tags every JSON record so shared log files can be filtered.
const serviceName = "agentwatch"

// SetupLogger logs human-readable text to stderr and JSON to logFile.
// If logFile cannot be opened it logs to stderr only and says so.
// The returned cleanup closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	// Append so restarts keep history
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// Fall back to stderr only
		logger := slog.New(textHandler(os.Stderr, level))
		logger.Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		return logger, func() error { return nil }
	}
	return SetupLoggerWithWriters(os.Stderr, file, level), file.Close
}

// SetupLoggerWithWriters fans out to a text handler on stderr and a JSON
// handler on file.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	// Fanout to both handlers
	return slog.New(slogmulti.Fanout(
		textHandler(stderr, level),
		jsonHandler(file, level),
	))
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

func jsonHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug, // file:line only when debugging
	}).WithAttrs([]slog.Attr{slog.String("service", serviceName)})
}
