package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusMetricsCountsTransfers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(PrometheusMetricsOptions{Registerer: reg})
	if err != nil {
		t.Fatalf("NewPrometheusMetrics: %v", err)
	}

	attrs := map[string]string{AttrEngine: "buffered", AttrDirection: "forward"}
	m.TransferStarted(attrs)
	m.TransferStarted(attrs)
	m.TransferFailed(errors.New("boom"), attrs)
	m.BytesGathered(128, attrs)
	m.PeerFailed(3, errors.New("timeout"), attrs)

	metrics := gather(t, reg)
	if got := counterValue(metrics, "parcomm_transfer_started_total"); got != 2 {
		t.Errorf("started = %v, want 2", got)
	}
	if got := counterValue(metrics, "parcomm_transfer_failed_total"); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := counterValue(metrics, "parcomm_bytes_gathered_total"); got != 128 {
		t.Errorf("gathered = %v, want 128", got)
	}
	if got := counterValue(metrics, "parcomm_peer_failed_total"); got != 1 {
		t.Errorf("peerFailed = %v, want 1", got)
	}
}

func TestPrometheusMetricsSharesRegistrationAcrossInstances(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetrics(PrometheusMetricsOptions{Registerer: reg}); err != nil {
		t.Fatalf("first NewPrometheusMetrics: %v", err)
	}
	if _, err := NewPrometheusMetrics(PrometheusMetricsOptions{Registerer: reg}); err != nil {
		t.Fatalf("second NewPrometheusMetrics should tolerate AlreadyRegisteredError: %v", err)
	}
}

func gather(t *testing.T, reg *prometheus.Registry) []*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	return families
}

func counterValue(families []*dto.MetricFamily, name string) float64 {
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}
