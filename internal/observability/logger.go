// Package observability builds the zerolog loggers used by the CLI.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Level   string
	Format  string // json or console
	Output  io.Writer
	Service string
}

// NewLogger creates a logger with the given configuration. Output defaults
// to stderr so it never mixes with data written to stdout.
func NewLogger(cfg LogConfig) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		})
	} else {
		zl = zerolog.New(output)
	}

	ctx := zl.Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return ctx.Logger()
}

// ParseLevel converts a string level to zerolog.Level. Unknown values map
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
