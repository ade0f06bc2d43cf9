package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	requestsTotal          *prometheus.CounterVec
	latencySeconds         *prometheus.HistogramVec
	errorsTotal            *prometheus.CounterVec
	alertsEmittedTotal     *prometheus.CounterVec
	validationRejectsTotal *prometheus.CounterVec
	dashboardCacheTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_requests_total",
			Help: "Total number of portal API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_latency_seconds",
			Help:    "Latency distribution for portal API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_errors_total",
			Help: "Total number of error responses returned by portal endpoints.",
		}, []string{"method", "route", "status"})

		alertsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_alerts_emitted_total",
			Help: "Alerts produced by dashboard evaluations, by kind.",
		}, []string{"kind"})

		validationRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_validation_rejects_total",
			Help: "Scores or payloads rejected by validation, by source.",
		}, []string{"source"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_dashboard_cache_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			errorsTotal,
			alertsEmittedTotal,
			validationRejectsTotal,
			dashboardCacheTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// AlertsEmitted counts alerts by kind.
func AlertsEmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsEmittedTotal
}

// ValidationRejects counts rejected scores and payloads.
func ValidationRejects() *prometheus.CounterVec {
	RegisterMetrics()
	return validationRejectsTotal
}

// DashboardCache counts cache hits and misses.
func DashboardCache() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}
