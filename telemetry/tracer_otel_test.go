package telemetry

import (
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/codes"
)

func TestOTelTracerRecordsErrorStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewOTelTracer("parcomm-test", provider.Tracer("parcomm-test"))

	span := tracer.StartSpan("parcomm.transfer", TraceAttribute{Key: AttrEngine, Value: "buffered"})
	span.AddEvent("posted")
	span.End(errors.New("communication error"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status code = %v, want Error", spans[0].Status().Code)
	}
	// "posted" plus the exception event End(err) records via RecordError.
	if len(spans[0].Events()) != 2 {
		t.Errorf("events = %d, want 2", len(spans[0].Events()))
	}
}

func TestOTelTracerCleanEndHasNoErrorStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewOTelTracer("parcomm-test", provider.Tracer("parcomm-test"))

	span := tracer.StartSpan("parcomm.transfer")
	span.End(nil)

	spans := recorder.Ended()
	if spans[0].Status().Code == codes.Error {
		t.Error("clean End reported an error status")
	}
}
