// ABOUTME: Builds the zap logger used by every component
// ABOUTME: Logs go to stderr so command output on stdout stays clean
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON ("json") or human readable ("console") logger at level
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// ForCLI picks a level from the global verbosity flags
func ForCLI(verbose, quiet bool, format string) (*zap.Logger, error) {
	level := "warn"
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	if format == "" {
		format = "console"
	}
	return New(level, format)
}
