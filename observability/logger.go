// File: observability/logger.go
// Package observability contains logging setup for the module.
// License: Apache-2.0

package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Kerr-srl/ubxlib/config"
)

// SetupLogger builds a zap.Logger from the provided configuration.
// A non-empty File selects rotating file output; otherwise the logger
// writes to stderr. The caller should defer logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(c.Level) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "info":
		level.SetLevel(zap.InfoLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}

	encCfg := encoderConfig(c.Development)
	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer
	if c.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    orDefault(c.MaxSizeMB, 10),
			MaxBackups: orDefault(c.MaxBackups, 3),
			MaxAge:     orDefault(c.MaxAgeDays, 7),
		})
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if c.Development {
		opts = append(opts, zap.Development())
	}

	return zap.New(zapcore.NewCore(encoder, sink, level), opts...), nil
}

func encoderConfig(dev bool) zapcore.EncoderConfig {
	if dev {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	return zap.NewProductionEncoderConfig()
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
