package logger

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// Init configures the global JSON logger at level. Unknown levels fall back to info.
func Init(level string) error {
	return InitWithFormat(level, "json")
}

// InitWithFormat configures the global logger with a level and an encoding,
// "json" or "console".
func InitWithFormat(level, format string) error {
	l, err := build(level, format)
	if err != nil {
		return err
	}
	current.Store(l)
	return nil
}

func build(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("logger: unsupported format %q", format)
	}

	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Logger returns the configured global logger.
func Logger() *zap.Logger {
	return current.Load()
}

// Sync flushes buffered log entries.
func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger annotated with the module name.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// WithProject returns a module logger that also carries the project code.
func WithProject(module, projectCode string) *zap.Logger {
	return WithModule(module).With(zap.String("project", projectCode))
}

// Replace swaps the global logger and returns a func restoring the previous one.
// A nil logger installs a no-op logger.
func Replace(l *zap.Logger) func() {
	if l == nil {
		l = zap.NewNop()
	}
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}
