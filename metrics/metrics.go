// Package metrics holds the prometheus collectors of the registry and the
// server exposing them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCommitted = "committed"
	OutcomeAborted   = "aborted"
)

// Metrics holds the ledger collectors.
type Metrics struct {
	TxTotal     *prometheus.CounterVec
	TxDuration  *prometheus.HistogramVec
	EventsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors, which is what tests want.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TxTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_total",
			Help:      "Number of partition transactions by outcome",
		}, []string{"partition", "outcome"}),
		TxDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tx_duration_seconds",
			Help:      "Time spent executing a partition transaction, including lock wait",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"partition"}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Number of committed events by name",
		}, []string{"name"}),
	}
}

// ObserveTx records one finished transaction.
func (m *Metrics) ObserveTx(partition, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TxTotal.WithLabelValues(partition, outcome).Inc()
	m.TxDuration.WithLabelValues(partition).Observe(elapsed.Seconds())
}

// ObserveEvent counts one committed event.
func (m *Metrics) ObserveEvent(name string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(name).Inc()
}
