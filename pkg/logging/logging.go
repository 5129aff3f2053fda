// Package logging wraps zap's sugared logger behind a small interface so
// the rest of the service never imports zap directly.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	s *zap.SugaredLogger
}

// New builds a production logger at the given level. An unparseable
// level falls back to info rather than failing startup.
func New(level string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	z, err := cfg.Build()
	if err != nil {
		z, _ = zap.NewProduction()
	}

	return &Logger{s: z.Sugar()}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value context.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{s: l.s.With(keyvals...)}
}

// Named adds a component name segment, e.g. "parser" or "scheduler".
func (l *Logger) Named(name string) *Logger {
	return &Logger{s: l.s.Named(name)}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.s.Debugw(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.s.Infow(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.s.Warnw(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.s.Errorw(msg, keyvals...) }
func (l *Logger) Fatal(msg string, keyvals ...any) { l.s.Fatalw(msg, keyvals...) }

func (l *Logger) Sync() error { return l.s.Sync() }

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
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
