// Package telemetry defines the logging, tracing, and metrics hooks a
// parcomm engine reports through, and provides zap-, Prometheus-, and
// OpenTelemetry-backed implementations of them. The interfaces are kept
// deliberately narrow so a caller can plug in whatever observability
// stack their deployment already uses.
package telemetry

// Logger emits unstructured debug lines.
type Logger interface {
	Debugf(format string, args ...any)
}

// StructuredLogger emits key/value pairs for structured logging
// backends.
type StructuredLogger interface {
	Debugw(msg string, keyvals ...any)
}

// TraceAttribute is a key/value pair attached to a span or event.
type TraceAttribute struct {
	Key   string
	Value any
}

// Tracer opens spans covering one transfer.
type Tracer interface {
	StartSpan(name string, attrs ...TraceAttribute) Span
}

// Span records a transfer's lifecycle, milestones, and errors.
type Span interface {
	End(err error)
	AddEvent(name string, attrs ...TraceAttribute)
	RecordError(err error)
}

// MetricHook counts transfer lifecycle events.
type MetricHook interface {
	TransferStarted(attrs map[string]string)
	TransferCompleted(attrs map[string]string)
	TransferFailed(err error, attrs map[string]string)
	BytesGathered(n int, attrs map[string]string)
	BytesScattered(n int, attrs map[string]string)
	PeerFailed(peer int, err error, attrs map[string]string)
}

// Common attribute keys used across MetricHook implementations.
const (
	AttrEngine    = "engine"
	AttrDirection = "direction"
	AttrPeer      = "peer"
)

// NopLogger discards every line. It is the default when no Logger is
// configured.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}

// NopStructuredLogger discards every line.
type NopStructuredLogger struct{}

func (NopStructuredLogger) Debugw(string, ...any) {}

// NopTracer never starts a real span.
type NopTracer struct{}

func (NopTracer) StartSpan(string, ...TraceAttribute) Span { return nopSpan{} }

type nopSpan struct{}

func (nopSpan) End(error)                      {}
func (nopSpan) AddEvent(string, ...TraceAttribute) {}
func (nopSpan) RecordError(error)              {}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) TransferStarted(map[string]string)          {}
func (NopMetrics) TransferCompleted(map[string]string)        {}
func (NopMetrics) TransferFailed(error, map[string]string)    {}
func (NopMetrics) BytesGathered(int, map[string]string)       {}
func (NopMetrics) BytesScattered(int, map[string]string)      {}
func (NopMetrics) PeerFailed(int, error, map[string]string)   {}
