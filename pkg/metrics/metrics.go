package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records push-to-cloud outcomes.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	outcome  *prometheus.CounterVec
	pushed   prometheus.Counter
	failed   prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of sync runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Sync runs by aggregate outcome.",
	}, []string{"outcome"})
	pushed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_records_pushed_total",
		Help: "Records confirmed by the remote store.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_records_failed_total",
		Help: "Records rejected by the remote store or left dirty on timeout.",
	})
	reg.MustRegister(duration, outcome, pushed, failed)
	return &SyncMetrics{
		duration: duration,
		outcome:  outcome,
		pushed:   pushed,
		failed:   failed,
	}
}

// ObserveRun records one sync run.
func (m *SyncMetrics) ObserveRun(outcome string, duration time.Duration, pushed, failed int) {
	if m == nil || m.duration == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
	m.outcome.WithLabelValues(label).Inc()
	m.pushed.Add(float64(pushed))
	m.failed.Add(float64(failed))
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
