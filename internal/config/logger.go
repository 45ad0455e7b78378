package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BuildLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	return NewLogger(c.LogLevel, c.LogFormat)
}

// NewLogger builds a production zap logger at level. Format "console" uses
// the human-readable encoder; anything else logs JSON.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(lvl)
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		logConfig.Encoding = "console"
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return logConfig.Build()
}
