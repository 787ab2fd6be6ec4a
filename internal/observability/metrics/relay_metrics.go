package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics captures the claim event relay loop.
type RelayMetrics struct {
	jobRuns      *prometheus.CounterVec
	jobErrors    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	published    prometheus.Counter
	runLoopDelay prometheus.Histogram
}

var (
	relayMetricsOnce sync.Once
	relayMetrics     *RelayMetrics
)

func Relay() *RelayMetrics {
	relayMetricsOnce.Do(func() {
		relayMetrics = newRelayMetrics(prometheus.DefaultRegisterer)
	})
	return relayMetrics
}

func newRelayMetrics(registerer prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warrantyhub_relay_job_runs_total",
			Help: "Relay job executions.",
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warrantyhub_relay_job_errors_total",
			Help: "Relay job failures by reason.",
		}, []string{"job", "reason"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warrantyhub_relay_job_duration_seconds",
			Help:    "Relay job latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warrantyhub_claim_events_published_total",
			Help: "Claim events delivered from the outbox.",
		}),
		runLoopDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warrantyhub_relay_run_loop_lag_seconds",
			Help:    "Delay between the planned and actual relay run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	registerer.MustRegister(m.jobRuns, m.jobErrors, m.jobDuration, m.published, m.runLoopDelay)
	return m
}

func (m *RelayMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *RelayMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyFailureReason(err)).Inc()
}

func (m *RelayMetrics) ObserveJobDuration(job string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func (m *RelayMetrics) AddPublished(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.published.Add(float64(count))
}

func (m *RelayMetrics) ObserveRunLoopLag(lag time.Duration) {
	if m == nil {
		return
	}
	m.runLoopDelay.Observe(lag.Seconds())
}

// ResetRelayMetricsForTest resets the relay metrics singleton for tests.
func ResetRelayMetricsForTest() {
	relayMetricsOnce = sync.Once{}
	relayMetrics = nil
}
