package easyrequester

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger receives debug output from a Client. keysAndValues alternate
// between string keys and arbitrary values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// DebugConfig selects which parts of the request lifecycle are logged.
type DebugConfig struct {
	Enabled         bool
	LogRequests     bool
	LogAssembly     bool
	LogQueue        bool
	LogSupersession bool
	// PropagateRequestID sends the generated ID as X-Request-Id.
	PropagateRequestID bool
	RequestIDGen       func() string
}

// DefaultDebugConfig returns a disabled configuration with every category
// selected, so enabling it logs the full lifecycle.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:         false,
		LogRequests:     true,
		LogAssembly:     true,
		LogQueue:        true,
		LogSupersession: true,
		RequestIDGen:    uuid.NewString,
	}
}

// logrLogger adapts a logr.Logger. Debug maps to V(1).
type logrLogger struct {
	l logr.Logger
}

// NewLogrLogger wraps any logr sink.
func NewLogrLogger(l logr.Logger) Logger {
	return &logrLogger{l: l}
}

func (l *logrLogger) Debug(msg string, kv ...any) { l.l.V(1).Info(msg, kv...) }
func (l *logrLogger) Info(msg string, kv ...any)  { l.l.Info(msg, kv...) }
func (l *logrLogger) Warn(msg string, kv ...any)  { l.l.Info(msg, append(kv, "severity", "warn")...) }
func (l *logrLogger) Error(msg string, kv ...any) { l.l.Error(nil, msg, kv...) }

// NewSimpleLogger returns a console logger writing to stderr.
func NewSimpleLogger() Logger {
	sink := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "[EasyRequester_DEBUG] %s: %s\n", prefix, args)
			return
		}
		fmt.Fprintf(os.Stderr, "[EasyRequester_DEBUG] %s\n", args)
	}, funcr.Options{Verbosity: 1})
	return NewLogrLogger(sink)
}

// zapLogger adapts a zap logger through its sugared API.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps a zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
