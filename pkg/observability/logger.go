package observability

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures the application logger
type LogOptions struct {
	Level string
	// File enables a rotating file sink next to stdout
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// InitLogger initializes structured logger.
// Production writes JSON, everything else writes colored console output.
func InitLogger(env string, opts LogOptions) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: invalid level %q: %w", opts.Level, err)
		}
	} else if env != "production" {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if env == "production" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    max(1, opts.MaxSizeMB),
			MaxBackups: max(0, opts.MaxBackups),
			MaxAge:     max(0, opts.MaxAgeDays),
			Compress:   opts.Compress,
		}
		// file output is always JSON so it can be shipped as-is
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewTee(cores...)
	zapOpts := []zap.Option{zap.AddCaller()}

	if env == "production" {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
		zapOpts = append(zapOpts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		zapOpts = append(zapOpts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	logger := zap.New(core, zapOpts...)

	// Replace global logger
	zap.ReplaceGlobals(logger)

	return logger, nil
}
