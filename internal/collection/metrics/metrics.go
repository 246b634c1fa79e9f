package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for data collection. Create it once per
// process; every consumer treats a nil *Metrics as "metrics disabled".
type Metrics struct {
	APIRequests        *prometheus.CounterVec
	APIRetries         prometheus.Counter
	APIRequestDuration prometheus.Histogram
	RateLimitRemaining prometheus.Gauge
	RateLimitWaits     prometheus.Counter
	RateLimitWaitTime  prometheus.Counter
	CacheLookups       *prometheus.CounterVec
	CollectorOutcomes  *prometheus.CounterVec
	ProjectsRefreshed  *prometheus.CounterVec
	RefreshDuration    prometheus.Histogram
	ValidationRuns     *prometheus.CounterVec
	ValidationErrors   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoregistry_github_requests_total",
			Help: "GitHub API requests by status class",
		}, []string{"status"}),
		APIRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ecoregistry_github_retries_total",
			Help: "GitHub API attempts that were retried after a retryable failure",
		}),
		APIRequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecoregistry_github_request_duration_seconds",
			Help:    "Latency of individual GitHub API attempts",
			Buckets: prometheus.DefBuckets,
		}),
		RateLimitRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecoregistry_github_ratelimit_remaining",
			Help: "Remaining GitHub API quota as last reported",
		}),
		RateLimitWaits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ecoregistry_github_ratelimit_waits_total",
			Help: "Times the client paused until the quota reset",
		}),
		RateLimitWaitTime: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ecoregistry_github_ratelimit_wait_seconds_total",
			Help: "Total seconds spent waiting for quota resets",
		}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoregistry_github_cache_lookups_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}),
		CollectorOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoregistry_collector_outcomes_total",
			Help: "Collector runs by collector and outcome",
		}, []string{"collector", "outcome"}),
		ProjectsRefreshed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoregistry_projects_refreshed_total",
			Help: "Projects processed by the refresh service by outcome",
		}, []string{"outcome"}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecoregistry_project_refresh_duration_seconds",
			Help:    "Wall time of collecting one project",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
		ValidationRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoregistry_dataset_validations_total",
			Help: "Dataset validations by result",
		}, []string{"result"}),
		ValidationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ecoregistry_dataset_validation_errors_total",
			Help: "Errors reported by dataset validations",
		}),
	}
}

func (m *Metrics) ObserveRequest(status string, d time.Duration) {
	m.APIRequests.WithLabelValues(status).Inc()
	m.APIRequestDuration.Observe(d.Seconds())
}

func (m *Metrics) IncrementRetries() {
	m.APIRetries.Inc()
}

func (m *Metrics) SetRateLimitRemaining(n int) {
	m.RateLimitRemaining.Set(float64(n))
}

func (m *Metrics) ObserveRateLimitWait(d time.Duration) {
	m.RateLimitWaits.Inc()
	m.RateLimitWaitTime.Add(d.Seconds())
}

func (m *Metrics) RecordCacheHit() {
	m.CacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) RecordCollectorOutcome(collector, outcome string) {
	m.CollectorOutcomes.WithLabelValues(collector, outcome).Inc()
}

func (m *Metrics) RecordProjectRefreshed(outcome string, d time.Duration) {
	m.ProjectsRefreshed.WithLabelValues(outcome).Inc()
	m.RefreshDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordValidation(valid bool, errorCount int) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.ValidationRuns.WithLabelValues(result).Inc()
	m.ValidationErrors.Add(float64(errorCount))
}
