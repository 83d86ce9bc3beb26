package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the finance tracker.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	budgetEvaluations prometheus.Counter
	alertsFired       *prometheus.CounterVec
	goalsAchieved     prometheus.Counter
	reportRuns        *prometheus.CounterVec
	requestsTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rupeetrail_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rupeetrail_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rupeetrail_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rupeetrail_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		budgetEvaluations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rupeetrail_budget_evaluations_total",
				Help: "Total budget status evaluations.",
			},
		),
		alertsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rupeetrail_budget_alerts_fired_total",
				Help: "Total budget threshold alerts fired.",
			},
			[]string{"threshold"},
		),
		goalsAchieved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rupeetrail_goals_achieved_total",
				Help: "Total goal achievement transitions.",
			},
		),
		reportRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rupeetrail_report_runs_total",
				Help: "Total scheduled report job runs.",
			},
			[]string{"kind"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rupeetrail_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrBudgetEvaluation increments the budget evaluation counter.
func (m *Metrics) IncrBudgetEvaluation() {
	m.budgetEvaluations.Inc()
}

// IncrAlertFired increments the alert counter for a threshold ("80"/"100").
func (m *Metrics) IncrAlertFired(threshold string) {
	m.alertsFired.WithLabelValues(threshold).Inc()
}

// IncrGoalAchieved increments the goal achievement counter.
func (m *Metrics) IncrGoalAchieved() {
	m.goalsAchieved.Inc()
}

// IncrReportRun increments the report run counter ("daily"/"monthly").
func (m *Metrics) IncrReportRun(kind string) {
	m.reportRuns.WithLabelValues(kind).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetAlertSnapshot returns a snapshot of engine counters suitable for the
// GET /v1/metrics/alerts endpoint.
func (m *Metrics) GetAlertSnapshot() *domain.AlertMetrics {
	// Prometheus counters expose cumulative values.
	hits := getCounterValue(m.cacheHits, "category")
	misses := getCounterValue(m.cacheMisses, "category")

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.AlertMetrics{
		BudgetEvaluations: getPlainCounterValue(m.budgetEvaluations),
		AlertsAt80:        getCounterValue(m.alertsFired, "80"),
		AlertsAt100:       getCounterValue(m.alertsFired, "100"),
		GoalsAchieved:     getPlainCounterValue(m.goalsAchieved),
		ReportRunsDaily:   getCounterValue(m.reportRuns, "daily"),
		ReportRunsMonthly: getCounterValue(m.reportRuns, "monthly"),
		CacheHitRate:      hitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// getPlainCounterValue extracts the current float64 value from a Counter.
func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
