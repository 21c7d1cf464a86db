// Package logging configures the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by New.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// New builds a zap logger writing to stderr and installs it as the global
// logger, so packages can log through zap.L() and zap.S().
// The returned function restores the previous globals and flushes buffers.
func New(level, encoding string) (*zap.Logger, func(), error) {
	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	if encoding == "" {
		encoding = "console"
	}
	if encoding != "console" && encoding != "json" {
		return nil, nil, fmt.Errorf("unknown log encoding %q", encoding)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	logger, err := config.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	restore := zap.ReplaceGlobals(logger)
	return logger, func() {
		_ = logger.Sync()
		restore()
	}, nil
}

// ParseLevel maps a level name to a zap level. An empty name means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		return zap.DebugLevel, nil
	case "", LevelInfo:
		return zap.InfoLevel, nil
	case LevelWarn, "warning":
		return zap.WarnLevel, nil
	case LevelError:
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
