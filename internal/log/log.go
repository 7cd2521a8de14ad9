// Package log provides JSON-lines structured logging for cmdcorpus.
//
// Records look like:
//
//	{"ts":"2026-01-15T10:30:00Z","level":"WARN","msg":"malformed line skipped","file":"a.jsonl","line":12}
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variables read by NewFromEnv.
const (
	EnvDebug    = "CMDCORPUS_DEBUG"
	EnvLogLevel = "CMDCORPUS_LOG_LEVEL"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelWarn)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration. The CLI prints
// its results on stdout, so only warnings and errors reach stderr by default.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelWarn,
	}
}

// New creates a JSON-lines logger with the time key renamed to "ts".
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(output, opts))
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
}

// ApplyEnv overrides cfg from CMDCORPUS_LOG_LEVEL and CMDCORPUS_DEBUG.
// An unparsable level is ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		if lvl, err := ParseLevel(v); err == nil {
			cfg.Level = lvl
		}
	}
	if os.Getenv(EnvDebug) == "1" {
		cfg.Debug = true
	}
}

// NewFromEnv creates a logger configured from environment variables.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	ApplyEnv(cfg)
	return New(cfg)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Or returns l, or a discarding logger when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// LogParseError logs a skipped malformed input line.
func LogParseError(logger *slog.Logger, file string, line int, err error) {
	logger.Warn("malformed line skipped", "file", file, "line", line, "error", err)
}

// LogOrphanResult logs a result with no pending invocation.
func LogOrphanResult(logger *slog.Logger, file, toolUseID string, line int) {
	logger.Debug("orphan result", "file", file, "tool_use_id", toolUseID, "line", line)
}

// LogUnmatchedInvocation logs an invocation that never received a result.
func LogUnmatchedInvocation(logger *slog.Logger, file, toolUseID string, line int) {
	logger.Debug("unmatched invocation", "file", file, "tool_use_id", toolUseID, "line", line)
}

// LogFileError logs a log file that could not be processed.
func LogFileError(logger *slog.Logger, file string, err error) {
	logger.Warn("log file skipped", "file", file, "error", err)
}

// LogSQLiteError logs SQLite errors.
func LogSQLiteError(logger *slog.Logger, operation string, err error) {
	logger.Error("sqlite error", "operation", operation, "error", err)
}
