package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger with a few admin-specific helpers.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger. format is "json" or "console".
func New(level, format string) (*Logger, error) {
	var zapConfig zap.Config
	if format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err.Error())
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

func (l *Logger) LogHTTPRequest(requestID, method, path, ip string, statusCode int, durationMs float64) {
	l.Infow("HTTP request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration_ms", durationMs,
		"ip", ip,
	)
}

// LogCommit records a write against the repository.
func (l *Logger) LogCommit(path, section, commitSHA string, retried bool) {
	l.Infow("Committed site config",
		"path", path,
		"section", section,
		"commit_sha", commitSHA,
		"retried", retried,
	)
}
