// Package config loads agentwatch settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StoreSurrealDB = "surrealdb"
)

// Config holds all configuration values.
type Config struct {
	// Store selection
	Store      string
	SQLitePath string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Engine
	TickInterval      time.Duration
	HTTPTimeout       time.Duration
	CorrelationSample int

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Tracing: "stdout" exports spans, anything else disables them
	Trace string

	// Run the scheduler loop inside the MCP server
	MCPScheduler bool
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Store:      strings.ToLower(getEnv("AGENTWATCH_STORE", StoreSQLite)),
		SQLitePath: getEnv("AGENTWATCH_SQLITE_PATH", "agentwatch.db"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "agentwatch"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "engine"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		TickInterval:      parseDuration(getEnv("AGENTWATCH_TICK_INTERVAL", ""), 60*time.Second),
		HTTPTimeout:       parseDuration(getEnv("AGENTWATCH_HTTP_TIMEOUT", ""), 30*time.Second),
		CorrelationSample: parseInt(getEnv("AGENTWATCH_CORRELATION_SAMPLE", ""), 10),

		LogFile:  getEnv("AGENTWATCH_LOG_FILE", "/tmp/agentwatch.log"),
		LogLevel: parseLogLevel(getEnv("AGENTWATCH_LOG_LEVEL", "INFO")),

		Trace:        strings.ToLower(getEnv("AGENTWATCH_TRACE", "")),
		MCPScheduler: getEnv("AGENTWATCH_MCP_SCHEDULER", "false") == "true",
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseDuration falls back to def for empty, invalid, or non-positive values.
func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
