// Package metrics provides Prometheus metrics for the planner.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// scheduleRequestsTotal counts occurrence and analytics reads.
	// Labels:
	//   - operation: "occurrences" or "analytics"
	//   - cache: "hit" or "miss"
	scheduleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_schedule_requests_total",
			Help: "Total number of occurrence and analytics computations requested",
		},
		[]string{"operation", "cache"},
	)

	// computeDuration records how long a cache miss took to compute.
	computeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_compute_duration_seconds",
			Help:    "Duration of occurrence and analytics computations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	// completionUpdatesTotal counts past-occurrence completion updates.
	// Labels:
	//   - result: "committed", "rolled_back" or "rejected"
	completionUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_completion_updates_total",
			Help: "Total number of occurrence completion updates by outcome",
		},
		[]string{"result"},
	)

	// cacheEntries tracks result cache sizes.
	// Labels:
	//   - cache: "occurrences" or "analytics"
	//   - state: "active" or "expired"
	cacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planner_cache_entries",
			Help: "Number of entries held by the result caches",
		},
		[]string{"cache", "state"},
	)

	// remindersFiredTotal counts reminders handed to the notifier.
	// Labels:
	//   - kind: "explicit" or "recurring"
	//   - status: "sent" or "failed"
	remindersFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_reminders_fired_total",
			Help: "Total number of reminders delivered",
		},
		[]string{"kind", "status"},
	)
)

func init() {
	prometheus.MustRegister(scheduleRequestsTotal)
	prometheus.MustRegister(computeDuration)
	prometheus.MustRegister(completionUpdatesTotal)
	prometheus.MustRegister(remindersFiredTotal)
	prometheus.MustRegister(cacheEntries)
}

func RecordScheduleRequest(operation string, cacheHit bool) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	scheduleRequestsTotal.WithLabelValues(operation, cache).Inc()
}

func ObserveCompute(operation string, started time.Time) {
	computeDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func RecordCompletionUpdate(result string) {
	completionUpdatesTotal.WithLabelValues(result).Inc()
}

func RecordReminder(kind string, sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	remindersFiredTotal.WithLabelValues(kind, status).Inc()
}

func SetCacheEntries(cache string, active, expired int) {
	cacheEntries.WithLabelValues(cache, "active").Set(float64(active))
	cacheEntries.WithLabelValues(cache, "expired").Set(float64(expired))
}
