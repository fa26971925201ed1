// Package logging builds the process logger and scrubs secrets from log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a console logger for the local environment and a JSON
// production logger everywhere else.
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "local" || env == "" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.With(zap.String("env", envOrLocal(env))), nil
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
