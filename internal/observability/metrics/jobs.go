package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JobMetrics tracks document submission jobs end to end.
type JobMetrics struct {
	registry *prometheus.Registry

	jobsTotal    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobsInFlight prometheus.Gauge
	retriesTotal *prometheus.CounterVec
}

func NewJobMetrics(service string) *JobMetrics {
	registry := prometheus.NewRegistry()

	jobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsc",
			Subsystem: "jobs",
			Name:      "total",
			Help:      "Total finished jobs by terminal status.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vsc",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Job duration in seconds by terminal status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	jobsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vsc",
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Number of jobs currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsc",
			Subsystem: "jobs",
			Name:      "retries_total",
			Help:      "Total retry attempts against the analysis service.",
		},
		[]string{"service"},
	)

	registry.MustRegister(jobsTotal, jobDuration, jobsInFlight, retriesTotal)

	return &JobMetrics{
		registry:     registry,
		jobsTotal:    jobsTotal,
		jobDuration:  jobDuration,
		jobsInFlight: jobsInFlight,
		retriesTotal: retriesTotal,
	}
}

func (m *JobMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *JobMetrics) StartJob() {
	m.jobsInFlight.Inc()
}

func (m *JobMetrics) FinishJob(service, status string, duration time.Duration, retries int) {
	m.jobsInFlight.Dec()
	m.jobsTotal.WithLabelValues(service, status).Inc()
	m.jobDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if retries > 0 {
		m.retriesTotal.WithLabelValues(service).Add(float64(retries))
	}
}
