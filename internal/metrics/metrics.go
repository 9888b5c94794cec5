// internal/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "healthz_bridge"

// Upload results.
const (
	UploadOK     = "ok"
	UploadFailed = "failed"
)

// Metrics groups the collectors shared by the poller, the uploader and the server.
type Metrics struct {
	Events          *prometheus.CounterVec
	MalformedEvents prometheus.Counter
	Polls           prometheus.Counter
	DrainDuration   prometheus.Histogram
	DrainExhausted  prometheus.Counter
	Uploads         *prometheus.CounterVec
	Code            prometheus.Gauge
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_events_total",
			Help:      "Transport events drained by the poller, by kind.",
		}, []string{"kind"}),
		MalformedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_payloads_total",
			Help:      "Data events dropped because the payload was too short.",
		}),
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Completed poll cycles.",
		}),
		DrainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_duration_seconds",
			Help:      "Wall time spent draining transport events per poll.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1},
		}),
		DrainExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drain_budget_exhausted_total",
			Help:      "Polls that stopped draining because the budget ran out.",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Diagnostic artifact uploads, by result.",
		}, []string{"result"}),
		Code: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status_code",
			Help:      "Current health code served on /healthz.",
		}),
	}

	reg.MustRegister(
		m.Events,
		m.MalformedEvents,
		m.Polls,
		m.DrainDuration,
		m.DrainExhausted,
		m.Uploads,
		m.Code,
	)
	return m
}

// NewUnregistered returns collectors bound to a private registry.
// Used where no exposition is wired (tests, probe).
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
