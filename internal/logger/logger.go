// Package logger wraps zap with the key-value call style the services use.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger tagged with the service that owns it.
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger builds the process logger. APP_ENV=production selects the JSON
// production preset, anything else the console development preset.
// LOG_LEVEL overrides the preset's level.
func NewLogger(service string) *Logger {
	cfg := zap.NewDevelopmentConfig()
	if os.Getenv("APP_ENV") == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := zap.ParseAtomicLevel(raw); err == nil {
			cfg.Level = level
		}
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z = zap.NewExample()
	}
	return FromZap(z, service)
}

// FromZap tags an existing zap logger with a service name.
func FromZap(z *zap.Logger, service string) *Logger {
	return &Logger{SugaredLogger: z.Sugar().With("service", service)}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Named returns a child logger for one component of the service.
func (l *Logger) Named(component string) *Logger {
	return l.With("component", component)
}

// With returns a child logger carrying the given key-value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.Debugw(msg, keysAndValues...) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.Infow(msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.Warnw(msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.Errorw(msg, keysAndValues...) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, keysAndValues ...any) { l.Fatalw(msg, keysAndValues...) }
