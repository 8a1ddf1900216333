// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the process logger. Components never construct
// loggers themselves; the CLI builds one here and passes it down.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/scout-engine/pkg/types"
)

// New builds a sugared zap logger from cfg. Mode "dev" selects the console
// encoder with colored levels; any other mode selects production JSON.
func New(cfg types.LogConfig) (*zap.SugaredLogger, error) {
	var zc zap.Config
	if strings.EqualFold(cfg.Mode, "dev") {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that drops everything. Tests use it where a sink
// assertion is not the point.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
