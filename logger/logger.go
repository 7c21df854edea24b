// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

// Package logger builds the application logger.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a JSON logger writing to stdout at the given level.
// Accepted levels (case-insensitive): "debug", "info", "warn", "error".
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		zapLevel,
	)

	return zap.New(core, zap.AddCaller()), nil
}
