package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides observability for alert check runs and dispatches.
type Metrics struct {
	Dispatches   *prometheus.CounterVec
	RunsTotal    prometheus.Counter
	RunDuration  prometheus.Histogram
	LastRunStamp prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expiry_alert_dispatches_total",
			Help: "Notification dispatch attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expiry_alert_runs_total",
			Help: "Total number of completed alert check runs",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "expiry_alert_run_duration_seconds",
			Help:    "Duration of alert check runs",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastRunStamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "expiry_alert_last_run_timestamp_seconds",
			Help: "Unix time the last alert check run finished",
		}),
	}
	reg.MustRegister(m.Dispatches, m.RunsTotal, m.RunDuration, m.LastRunStamp)
	return m
}

// ObserveDispatch records one dispatch outcome ("sent" or "failed") for a channel.
func (m *Metrics) ObserveDispatch(channel, outcome string) {
	m.Dispatches.WithLabelValues(channel, outcome).Inc()
}

// ObserveRun records a finished run. Call with time.Now() at the start of the run.
func (m *Metrics) ObserveRun(start time.Time) {
	m.RunsTotal.Inc()
	m.RunDuration.Observe(time.Since(start).Seconds())
	m.LastRunStamp.SetToCurrentTime()
}
