package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsOptions configures NewOTelMetrics.
type OTelMetricsOptions struct {
	MeterProvider          metric.MeterProvider
	Meter                  metric.Meter
	InstrumentationName    string
	InstrumentationVersion string
}

var _ MetricHook = (*OTelMetrics)(nil)

// OTelMetrics implements MetricHook using OpenTelemetry counters.
type OTelMetrics struct {
	started    metric.Int64Counter
	completed  metric.Int64Counter
	failed     metric.Int64Counter
	gathered   metric.Int64Counter
	scattered  metric.Int64Counter
	peerFailed metric.Int64Counter
}

// NewOTelMetrics constructs a MetricHook that emits OpenTelemetry
// counter measurements.
func NewOTelMetrics(opts OTelMetricsOptions) (*OTelMetrics, error) {
	meter := opts.Meter
	if meter == nil {
		provider := opts.MeterProvider
		if provider == nil {
			provider = otel.GetMeterProvider()
		}
		name := opts.InstrumentationName
		if name == "" {
			name = "github.com/rocketbitz/parcomm"
		}
		meter = provider.Meter(name, metric.WithInstrumentationVersion(opts.InstrumentationVersion))
	}

	started, err := meter.Int64Counter("parcomm.transfer.started")
	if err != nil {
		return nil, err
	}
	completed, err := meter.Int64Counter("parcomm.transfer.completed")
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("parcomm.transfer.failed")
	if err != nil {
		return nil, err
	}
	gathered, err := meter.Int64Counter("parcomm.bytes.gathered")
	if err != nil {
		return nil, err
	}
	scattered, err := meter.Int64Counter("parcomm.bytes.scattered")
	if err != nil {
		return nil, err
	}
	peerFailed, err := meter.Int64Counter("parcomm.peer.failed")
	if err != nil {
		return nil, err
	}

	return &OTelMetrics{
		started: started, completed: completed, failed: failed,
		gathered: gathered, scattered: scattered, peerFailed: peerFailed,
	}, nil
}

func (o *OTelMetrics) TransferStarted(attrs map[string]string) {
	o.started.Add(context.Background(), 1, metric.WithAttributes(otelAttrs(attrs)...))
}

func (o *OTelMetrics) TransferCompleted(attrs map[string]string) {
	o.completed.Add(context.Background(), 1, metric.WithAttributes(otelAttrs(attrs)...))
}

func (o *OTelMetrics) TransferFailed(_ error, attrs map[string]string) {
	o.failed.Add(context.Background(), 1, metric.WithAttributes(otelAttrs(attrs)...))
}

func (o *OTelMetrics) BytesGathered(n int, attrs map[string]string) {
	o.gathered.Add(context.Background(), int64(n), metric.WithAttributes(otelAttrs(attrs)...))
}

func (o *OTelMetrics) BytesScattered(n int, attrs map[string]string) {
	o.scattered.Add(context.Background(), int64(n), metric.WithAttributes(otelAttrs(attrs)...))
}

func (o *OTelMetrics) PeerFailed(peer int, _ error, attrs map[string]string) {
	kvs := append(otelAttrs(attrs), attribute.Int(AttrPeer, peer))
	o.peerFailed.Add(context.Background(), 1, metric.WithAttributes(kvs...))
}

func otelAttrs(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	if v, ok := attrs[AttrEngine]; ok {
		kvs = append(kvs, attribute.String(AttrEngine, v))
	}
	if v, ok := attrs[AttrDirection]; ok {
		kvs = append(kvs, attribute.String(AttrDirection, v))
	}
	return kvs
}
