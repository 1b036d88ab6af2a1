package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOTelMetricsRecordsCounters(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	m, err := NewOTelMetrics(OTelMetricsOptions{MeterProvider: provider})
	if err != nil {
		t.Fatalf("NewOTelMetrics: %v", err)
	}

	attrs := map[string]string{AttrEngine: "datatype", AttrDirection: "backward"}
	m.TransferStarted(attrs)
	m.TransferCompleted(attrs)
	m.TransferFailed(errors.New("boom"), attrs)
	m.BytesScattered(64, attrs)
	m.PeerFailed(1, errors.New("timeout"), attrs)

	var data metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &data); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	found := map[string]int64{}
	for _, sm := range data.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			found[m.Name] = total
		}
	}

	if found["parcomm.transfer.started"] != 1 {
		t.Errorf("parcomm.transfer.started = %v, want 1", found["parcomm.transfer.started"])
	}
	if found["parcomm.transfer.completed"] != 1 {
		t.Errorf("parcomm.transfer.completed = %v, want 1", found["parcomm.transfer.completed"])
	}
	if found["parcomm.peer.failed"] != 1 {
		t.Errorf("parcomm.peer.failed = %v, want 1", found["parcomm.peer.failed"])
	}
}
