// Package obs wires structured logging into the matching core's injected
// Logger interface.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger with an ISO8601 timestamp, the shape
// every process in this repo logs with.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// EngineLogger adapts a *zap.SugaredLogger to engine.Logger, so the
// matching core depends only on that interface and never on zap directly.
type EngineLogger struct {
	s *zap.SugaredLogger
}

// NewEngineLogger wraps l for use as an engine.Logger.
func NewEngineLogger(l *zap.Logger) *EngineLogger {
	return &EngineLogger{s: l.Sugar()}
}

func (e *EngineLogger) Infof(format string, args ...any)  { e.s.Infof(format, args...) }
func (e *EngineLogger) Warnf(format string, args ...any)  { e.s.Warnf(format, args...) }
func (e *EngineLogger) Errorf(format string, args ...any) { e.s.Errorf(format, args...) }
