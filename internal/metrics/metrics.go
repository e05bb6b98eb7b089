// Package metrics exposes the Prometheus collectors for the scoreboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackathon_registry_operations_total",
			Help: "Registry operations by kind and outcome.",
		},
		[]string{"operation", "status"},
	)
	teamsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hackathon_teams",
			Help: "Number of teams currently registered.",
		},
	)
	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hackathon_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
	reportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackathon_reports_generated_total",
			Help: "Reports rendered, by where they were produced and the outcome.",
		},
		[]string{"source", "status"},
	)
	rowErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hackathon_load_row_errors_total",
			Help: "Rows rejected while loading team records.",
		},
	)
)

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// RegistryOp counts one registry operation such as "register" or "remove".
func RegistryOp(op string, ok bool) {
	registryOps.WithLabelValues(op, status(ok)).Inc()
}

func SetTeams(n int) {
	teamsGauge.Set(float64(n))
}

func ObserveRequest(method, route string, code int, d time.Duration) {
	requestLatency.WithLabelValues(method, route, statusText(code)).Observe(d.Seconds())
}

func ReportGenerated(source string, ok bool) {
	reportsGenerated.WithLabelValues(source, status(ok)).Inc()
}

func RowErrors(n int) {
	rowErrors.Add(float64(n))
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
