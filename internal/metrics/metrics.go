package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code", "service"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "service"},
	)

	// Run lifecycle metrics
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vacancy_runs_started_total",
			Help: "Total number of parser runs started",
		},
	)

	RunsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vacancy_runs_finished_total",
			Help: "Total number of parser runs finished, by final status",
		},
		[]string{"status"},
	)

	RunsRejectedBusy = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vacancy_runs_rejected_busy_total",
			Help: "Run start requests rejected because the script was already running",
		},
	)

	// Pipeline metrics
	PagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vacancy_pages_fetched_total",
			Help: "Total number of hh.ru result pages fetched",
		},
	)

	VacanciesObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vacancy_observations_total",
			Help: "Vacancies reconciled per run, split into new and existing",
		},
		[]string{"kind"},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version"},
	)
)

// Init sets static metric values at startup.
func Init(serviceName, version string) {
	ApplicationInfo.WithLabelValues(serviceName, version).Set(1)
}
