package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Admissions          *prometheus.CounterVec
	Generations         *prometheus.CounterVec
	GenerationDuration  prometheus.Histogram
	CircuitBreakerState prometheus.Gauge
	SweptRecords        prometheus.Counter
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New registers the relay metrics with reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_quota_admissions_total",
			Help: "Quota decisions by result and tier",
		}, []string{"result", "tier"}),
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_generations_total",
			Help: "Orchestration outcomes, labelled with the step that failed",
		}, []string{"status", "failed_step"}),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_generation_duration_seconds",
			Help:    "End-to-end orchestration latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}),
		CircuitBreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_backend_circuit_state",
			Help: "Generation backend circuit breaker state (0 closed, 1 open, 2 half-open)",
		}),
		SweptRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_quota_records_swept_total",
			Help: "Quota records deleted by the retention sweeper",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) ObserveAdmission(admitted bool, tier string) {
	result := "denied"
	if admitted {
		result = "admitted"
	}
	m.Admissions.WithLabelValues(result, tier).Inc()
}

func (m *Metrics) ObserveGeneration(failedStep string, elapsed time.Duration) {
	status := "succeeded"
	if failedStep != "" {
		status = "failed"
	}
	m.Generations.WithLabelValues(status, failedStep).Inc()
	m.GenerationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SetCircuitState(state int) {
	m.CircuitBreakerState.Set(float64(state))
}

func (m *Metrics) AddSwept(n int64) {
	m.SweptRecords.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
