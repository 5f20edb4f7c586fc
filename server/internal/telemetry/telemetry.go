package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	SessionsRepaired prometheus.Counter
	StoreErrors      *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	SessionCount     prometheus.Gauge
	SuccessRate      prometheus.Gauge
}

// New registers the counters on a private registry, plus the Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "testons",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		SessionsRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "testons",
			Name:      "sessions_repaired_total",
			Help:      "Sessions rewritten by normalization.",
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "testons",
			Name:      "store_errors_total",
			Help:      "Failed persistence calls by operation.",
		}, []string{"op"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "testons",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a fetch, normalize and aggregate pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		SessionCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "testons",
			Name:      "sessions",
			Help:      "Sessions seen by the last aggregation.",
		}),
		SuccessRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "testons",
			Name:      "success_rate_percent",
			Help:      "Global success rate of the last aggregation.",
		}),
	}
	reg.MustRegister(
		m.HTTPRequests, m.SessionsRepaired, m.StoreErrors,
		m.RefreshDuration, m.SessionCount, m.SuccessRate,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
