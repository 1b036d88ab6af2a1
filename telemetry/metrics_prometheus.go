package telemetry

import "github.com/prometheus/client_golang/prometheus"

// PrometheusMetricsOptions configures NewPrometheusMetrics.
type PrometheusMetricsOptions struct {
	Registerer  prometheus.Registerer
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
}

var _ MetricHook = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements MetricHook using Prometheus counters.
type PrometheusMetrics struct {
	started    *prometheus.CounterVec
	completed  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	gathered   *prometheus.CounterVec
	scattered  *prometheus.CounterVec
	peerFailed *prometheus.CounterVec
}

var (
	transferLabelKeys = []string{AttrEngine, AttrDirection}
	peerLabelKeys     = []string{AttrEngine, AttrDirection, AttrPeer}
)

// NewPrometheusMetrics constructs a MetricHook backed by Prometheus
// counters, registering them with opts.Registerer (prometheus's default
// registerer if unset).
func NewPrometheusMetrics(opts PrometheusMetricsOptions) (*PrometheusMetrics, error) {
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusMetrics{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Subsystem: opts.Subsystem,
			Name: "parcomm_transfer_started_total", Help: "Number of transfers started",
			ConstLabels: opts.ConstLabels,
		}, transferLabelKeys),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Subsystem: opts.Subsystem,
			Name: "parcomm_transfer_completed_total", Help: "Number of transfers completed successfully",
			ConstLabels: opts.ConstLabels,
		}, transferLabelKeys),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Subsystem: opts.Subsystem,
			Name: "parcomm_transfer_failed_total", Help: "Number of transfers that raised a communication error",
			ConstLabels: opts.ConstLabels,
		}, transferLabelKeys),
		gathered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Subsystem: opts.Subsystem,
			Name: "parcomm_bytes_gathered_total", Help: "Bytes gathered into staging buffers",
			ConstLabels: opts.ConstLabels,
		}, transferLabelKeys),
		scattered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Subsystem: opts.Subsystem,
			Name: "parcomm_bytes_scattered_total", Help: "Bytes scattered out of staging buffers",
			ConstLabels: opts.ConstLabels,
		}, transferLabelKeys),
		peerFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Subsystem: opts.Subsystem,
			Name: "parcomm_peer_failed_total", Help: "Number of per-peer transport failures",
			ConstLabels: opts.ConstLabels,
		}, peerLabelKeys),
	}

	var err error
	if p.started, err = registerCounterVec(reg, p.started); err != nil {
		return nil, err
	}
	if p.completed, err = registerCounterVec(reg, p.completed); err != nil {
		return nil, err
	}
	if p.failed, err = registerCounterVec(reg, p.failed); err != nil {
		return nil, err
	}
	if p.gathered, err = registerCounterVec(reg, p.gathered); err != nil {
		return nil, err
	}
	if p.scattered, err = registerCounterVec(reg, p.scattered); err != nil {
		return nil, err
	}
	if p.peerFailed, err = registerCounterVec(reg, p.peerFailed); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *PrometheusMetrics) TransferStarted(attrs map[string]string) {
	p.started.With(labels(attrs, transferLabelKeys...)).Inc()
}

func (p *PrometheusMetrics) TransferCompleted(attrs map[string]string) {
	p.completed.With(labels(attrs, transferLabelKeys...)).Inc()
}

func (p *PrometheusMetrics) TransferFailed(_ error, attrs map[string]string) {
	p.failed.With(labels(attrs, transferLabelKeys...)).Inc()
}

func (p *PrometheusMetrics) BytesGathered(n int, attrs map[string]string) {
	p.gathered.With(labels(attrs, transferLabelKeys...)).Add(float64(n))
}

func (p *PrometheusMetrics) BytesScattered(n int, attrs map[string]string) {
	p.scattered.With(labels(attrs, transferLabelKeys...)).Add(float64(n))
}

func (p *PrometheusMetrics) PeerFailed(peer int, _ error, attrs map[string]string) {
	labs := labels(attrs, peerLabelKeys...)
	labs[AttrPeer] = itoa(peer)
	p.peerFailed.With(labs).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return vec, nil
}

func labels(attrs map[string]string, keys ...string) prometheus.Labels {
	labs := make(prometheus.Labels, len(keys))
	for _, key := range keys {
		labs[key] = attrs[key]
	}
	return labs
}
