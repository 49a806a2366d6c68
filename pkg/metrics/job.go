package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics covers batch work: publisher passes, maintenance jobs and seed
// runs. A nil *JobMetrics records nothing.
type JobMetrics struct {
	duration    *prometheus.HistogramVec
	success     *prometheus.CounterVec
	failure     *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

var jobBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return nil
	}
	byJob := []string{"job"}
	m := &JobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Wall time of one job run.",
			Buckets: jobBuckets,
		}, byJob),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_success_total",
			Help: "Job runs that finished without error.",
		}, byJob),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_failure_total",
			Help: "Job runs that returned an error.",
		}, byJob),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_last_success_timestamp_seconds",
			Help: "Unix time of the most recent successful run.",
		}, byJob),
	}
	reg.MustRegister(m.duration, m.success, m.failure, m.lastSuccess)
	return m
}

// Observe records one finished run of job. err decides the outcome.
func (m *JobMetrics) Observe(job string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if job == "" {
		job = "unknown"
	}
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if err != nil {
		m.failure.WithLabelValues(job).Inc()
		return
	}
	m.success.WithLabelValues(job).Inc()
	m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// Time starts a run and returns the func that finishes it.
func (m *JobMetrics) Time(job string) func(err error) {
	start := time.Now()
	return func(err error) { m.Observe(job, time.Since(start), err) }
}
