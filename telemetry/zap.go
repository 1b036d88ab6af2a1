package telemetry

import "go.uber.org/zap"

// ZapLogger adapts a *zap.SugaredLogger to both Logger and
// StructuredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var (
	_ Logger           = ZapLogger{}
	_ StructuredLogger = ZapLogger{}
)

// NewZapLogger wraps logger. Passing nil uses zap.NewNop().
func NewZapLogger(logger *zap.Logger) ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ZapLogger{sugar: logger.Sugar()}
}

func (z ZapLogger) Debugf(format string, args ...any) {
	z.sugar.Debugf(format, args...)
}

func (z ZapLogger) Debugw(msg string, keyvals ...any) {
	z.sugar.Debugw(msg, keyvals...)
}
