package logger

import (
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// Global logger for convenience
var L *Logger

// NewLogger creates and returns a new Logger instance
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.InfoLevel
	if cfg != nil && cfg.Logging.Level == types.LogLevelDebug {
		level = zap.DebugLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	l := &Logger{SugaredLogger: zapLogger.Sugar()}
	L = l
	return l, nil
}

// NewNoopLogger returns a logger that discards everything, used by tests
func NewNoopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Given logger is a heavily used object it is also kept as a global
// for scripts and the migrate command. Everywhere else it is injected.
func init() {
	L, _ = NewLogger(config.GetDefaultConfig())
}

// With returns a child logger carrying the given key value pairs
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}
