// Package logging wraps zap for the rest of relstore, so every layer logs
// through the same structured, leveled interface instead of fmt.Printf.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin wrapper around zap.SugaredLogger. The zero value is not
// usable; construct with New or Nop.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

// New builds a Logger at the given level ("debug", "info", "warn",
// "error"), writing JSON if format is "json" and human-readable console
// output otherwise.
func New(level, format string) (*Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if strings.ToLower(format) == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zapLevel)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{SugaredLogger: base.Sugar(), base: base}, nil
}

// Nop returns a Logger that discards everything, for tests and callers
// that don't care to configure logging.
func Nop() *Logger {
	base := zap.NewNop()
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// OrNop returns l, or a fresh no-op Logger if l is nil, so callers taking
// an optional *Logger never need a nil check before logging.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// Named returns a child logger tagged with name, e.g. "recordstore".
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.base.Named(name).Sugar(), base: l.base.Named(name)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
