package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the engine's Prometheus collectors on a private
// registry so multiple engines in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	StartedTotal         prometheus.Counter
	FinishedTotal        prometheus.Counter
	UnmatchedFinishTotal prometheus.Counter
	NotificationsTotal   prometheus.Counter
	EvictionsTotal       prometheus.Counter
	StoredRecords        prometheus.Gauge
}

// New creates and registers the engine collectors.
func New() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		StartedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpledger",
			Name:      "transactions_started_total",
			Help:      "Total start events observed",
		}),
		FinishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpledger",
			Name:      "transactions_finished_total",
			Help:      "Total finish events observed",
		}),
		UnmatchedFinishTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpledger",
			Name:      "unmatched_finish_total",
			Help:      "Finish events whose start was never observed",
		}),
		NotificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpledger",
			Name:      "notifications_total",
			Help:      "Notifier invocations",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpledger",
			Name:      "evictions_total",
			Help:      "Records dropped by the store capacity bound",
		}),
		StoredRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "httpledger",
			Name:      "stored_records",
			Help:      "Records currently held by the store",
		}),
	}
	r.MustRegister(m.StartedTotal, m.FinishedTotal, m.UnmatchedFinishTotal,
		m.NotificationsTotal, m.EvictionsTotal, m.StoredRecords)
	return m
}

// Registry returns the private registry, e.g. for a /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
