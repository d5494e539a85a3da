package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Init builds the global logger for env. Every environment writes to stderr
// so that command output on stdout stays parseable. A non-empty level such
// as "debug" overrides the environment's default.
func Init(env, level string) error {
	cfg := configFor(env)
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		cfg.Level = lvl
	}

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return err
	}
	log = l
	return nil
}

func configFor(env string) zap.Config {
	switch env {
	case "production":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stderr"}
		return cfg
	case "test":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		return cfg
	default:
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
}

// Set replaces the global logger. Used by tests.
func Set(l *zap.Logger) {
	log = l
}

// L returns the global logger, building it from APP_ENV and LOG_LEVEL on
// first use.
func L() *zap.Logger {
	if log == nil {
		if err := Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL")); err != nil {
			log = zap.NewNop()
		}
	}
	return log
}

func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
