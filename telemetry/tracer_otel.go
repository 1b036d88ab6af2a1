package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelTracer adapts an OpenTelemetry trace.Tracer to Tracer.
type OTelTracer struct {
	tracer trace.Tracer
}

var _ Tracer = OTelTracer{}

// NewOTelTracer wraps tracer, using the global TracerProvider under the
// given instrumentation name if tracer is empty.
func NewOTelTracer(instrumentationName string, tracer trace.Tracer) OTelTracer {
	if tracer == nil {
		if instrumentationName == "" {
			instrumentationName = "github.com/rocketbitz/parcomm"
		}
		tracer = otel.Tracer(instrumentationName)
	}
	return OTelTracer{tracer: tracer}
}

func (t OTelTracer) StartSpan(name string, attrs ...TraceAttribute) Span {
	_, span := t.tracer.Start(context.Background(), name, trace.WithAttributes(otelKVs(attrs)...))
	return otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s otelSpan) AddEvent(name string, attrs ...TraceAttribute) {
	s.span.AddEvent(name, trace.WithAttributes(otelKVs(attrs)...))
}

func (s otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func otelKVs(attrs []TraceAttribute) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			kvs = append(kvs, attribute.String(a.Key, v))
		case int:
			kvs = append(kvs, attribute.Int(a.Key, v))
		case bool:
			kvs = append(kvs, attribute.Bool(a.Key, v))
		default:
			kvs = append(kvs, attribute.String(a.Key, "unsupported attribute type"))
		}
	}
	return kvs
}
