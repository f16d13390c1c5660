// Package observability registers the service's prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "users_created_total",
		Help:      "Number of users persisted to the store.",
	})
	exercisePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "last_exercise_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise persisted to the store.",
	})
	logQueryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "api",
		Name:      "log_queries_total",
		Help:      "Number of log queries grouped by whether a date filter applied.",
	}, []string{"filtered"})
)

func init() {
	prometheus.MustRegister(usersCreatedCounter, exercisePersistGauge, logQueryCounter)
}

// RecordUserPersisted counts a successful user write.
func RecordUserPersisted() {
	usersCreatedCounter.Inc()
}

// RecordExercisePersisted updates the persistence watermark gauge.
func RecordExercisePersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	exercisePersistGauge.Set(float64(ts.Unix()))
}

// RecordLogQuery counts a served log query.
func RecordLogQuery(filtered bool) {
	label := "none"
	if filtered {
		label = "date_range"
	}
	logQueryCounter.WithLabelValues(label).Inc()
}
