// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperPagesTotal          *prometheus.CounterVec
	scraperRecordsTotal        prometheus.Counter
	scraperBlockedTotal        *prometheus.CounterVec
	scraperIdentityRetirements *prometheus.CounterVec
	scraperStrategyWins        *prometheus.CounterVec
	scraperTaskRetriesTotal    *prometheus.CounterVec
	scraperActiveWorkers       prometheus.Gauge
	scraperBackoffSeconds      prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Total pages fetched, labeled by stage and classification.",
			},
			[]string{"stage", "status"},
		)

		scraperRecordsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_records_persisted_total",
				Help: "Total job records persisted to the sink.",
			},
		)

		scraperBlockedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_blocked_total",
				Help: "Total blocked classifications, labeled by transport.",
			},
			[]string{"transport"},
		)

		scraperIdentityRetirements = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_identity_retirements_total",
				Help: "Total identities retired, labeled by reason.",
			},
			[]string{"reason"},
		)

		scraperStrategyWins = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_extraction_strategy_wins_total",
				Help: "Times each extraction strategy produced the winning result.",
			},
			[]string{"stage", "strategy"},
		)

		scraperTaskRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_task_retries_total",
				Help: "Task re-queues after a retryable fetch failure, labeled by stage.",
			},
			[]string{"stage"},
		)

		scraperActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_active_workers",
				Help: "Number of workers currently processing a task.",
			},
		)

		scraperBackoffSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_backoff_seconds",
				Help:    "Histogram of backoff waits before retry attempts.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		initHTTP()
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage counts one fetched page by stage and classification.
func ObservePage(stage string, status string) {
	if scraperPagesTotal == nil {
		return
	}
	scraperPagesTotal.WithLabelValues(stage, status).Inc()
}

// ObservePersisted counts persisted records.
func ObservePersisted(n int) {
	if scraperRecordsTotal == nil || n <= 0 {
		return
	}
	scraperRecordsTotal.Add(float64(n))
}

// ObserveBlocked counts a blocked classification for the given transport.
func ObserveBlocked(transport string) {
	if scraperBlockedTotal == nil {
		return
	}
	scraperBlockedTotal.WithLabelValues(transport).Inc()
}

// ObserveIdentityRetired counts one identity retirement.
func ObserveIdentityRetired(reason string) {
	if scraperIdentityRetirements == nil {
		return
	}
	scraperIdentityRetirements.WithLabelValues(reason).Inc()
}

// ObserveStrategyWin records which cascade strategy won for a stage.
func ObserveStrategyWin(stage string, strategy string) {
	if scraperStrategyWins == nil {
		return
	}
	scraperStrategyWins.WithLabelValues(stage, strategy).Inc()
}

// ObserveTaskRetry counts a task re-queue for the stage.
func ObserveTaskRetry(stage string) {
	if scraperTaskRetriesTotal == nil {
		return
	}
	scraperTaskRetriesTotal.WithLabelValues(stage).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if scraperActiveWorkers == nil {
		return
	}
	scraperActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if scraperActiveWorkers == nil {
		return
	}
	scraperActiveWorkers.Dec()
}

// ObserveBackoff records the duration of one backoff wait.
func ObserveBackoff(d time.Duration) {
	if scraperBackoffSeconds == nil {
		return
	}
	scraperBackoffSeconds.Observe(d.Seconds())
}
