package engine

import (
	"context"

	"github.com/rocketbitz/parcomm/telemetry"
	"github.com/rocketbitz/parcomm/transport"
)

// defaultTag is the fixed communication tag used by BufferedEngine and
// DatatypeEngine, per the transport contract's requirement of one fixed
// tag per engine class.
const defaultTag transport.Tag = 0xC0117A6

// Config carries the ambient hooks an engine reports through. There is
// no persisted state (no files, env vars, or CLI): every field here is
// supplied by the caller at construction time.
type Config struct {
	// Logger receives unstructured debug lines (build/free transitions).
	Logger telemetry.Logger
	// StructuredLogger receives one structured line per peer on
	// transport failure, carrying the peer's rank and the transport's
	// decoded message.
	StructuredLogger telemetry.StructuredLogger
	// Tracer opens one span per transfer.
	Tracer telemetry.Tracer
	// Metrics counts transfers, bytes, and failures.
	Metrics telemetry.MetricHook
	// Tag overrides the default communication tag. Zero means use the
	// engine's default.
	Tag transport.Tag
	// Ctx bounds the caller's outer operation. The engine itself has no
	// cancellation points (transport waits are not interruptible); Ctx
	// is only checked between transfers, e.g. before Build.
	Ctx context.Context
}

// ctxErr reports why the caller's outer operation should not proceed,
// or nil if Ctx is unset or still live. Called before Build/BuildVariable
// since those are the only engine calls that don't already block inside
// a transport wait.
func (c Config) ctxErr() error {
	if c.Ctx == nil {
		return nil
	}
	return c.Ctx.Err()
}

func (c Config) tag() transport.Tag {
	if c.Tag != 0 {
		return c.Tag
	}
	return defaultTag
}

func (c Config) logger() telemetry.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return telemetry.NopLogger{}
}

func (c Config) structuredLogger() telemetry.StructuredLogger {
	if c.StructuredLogger != nil {
		return c.StructuredLogger
	}
	return telemetry.NopStructuredLogger{}
}

func (c Config) tracer() telemetry.Tracer {
	if c.Tracer != nil {
		return c.Tracer
	}
	return telemetry.NopTracer{}
}

func (c Config) metrics() telemetry.MetricHook {
	if c.Metrics != nil {
		return c.Metrics
	}
	return telemetry.NopMetrics{}
}
