package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tartampluch/go-compass/internal/config"
)

// Metrics owns a private registry so several servers (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestLatency  *prometheus.HistogramVec
	SnapshotUpdates prometheus.Counter
	StudentsLoaded  prometheus.Gauge
	RosterSkipped   prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.MetricNamespace,
			Name:      config.MetricRequestLatency,
			Help:      "Latency of HTTP endpoints in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{config.MetricLabelRoute, config.MetricLabelStatus}),
		SnapshotUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.MetricNamespace,
			Name:      config.MetricSnapshotUpdates,
			Help:      "Number of roster snapshots published",
		}),
		StudentsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.MetricNamespace,
			Name:      config.MetricStudentsLoaded,
			Help:      "Student records in the current snapshot",
		}),
		RosterSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.MetricNamespace,
			Name:      config.MetricRosterSkipped,
			Help:      "Records left out of a roster because of an unusable birth date",
		}),
	}
}

func (m *Metrics) ObserveRequest(route string, status int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, strconv.Itoa(status)).Observe(durationSeconds)
}

func (m *Metrics) observeSnapshot(students int) {
	if m == nil {
		return
	}
	m.SnapshotUpdates.Inc()
	m.StudentsLoaded.Set(float64(students))
}

func (m *Metrics) observeSkipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.RosterSkipped.Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
