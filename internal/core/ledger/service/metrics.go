package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "ledger"

// Metrics contains the ledger service's Prometheus collectors.
type Metrics struct {
	// Transactions processed, by type and result code.
	Transactions *prometheus.CounterVec
	// Sequence of the last closed ledger.
	LedgerSequence prometheus.Gauge
	// Time spent applying and committing one transaction.
	ApplyDuration prometheus.Histogram
	// Applied transactions that could not be written to history.
	HistoryErrors prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "transactions_total",
			Help:      "Transactions processed, by type and result.",
		}, []string{"type", "result"}),
		LedgerSequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "sequence",
			Help:      "Sequence of the last closed ledger.",
		}),
		ApplyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "apply_duration_seconds",
			Help:      "Time to apply and commit one transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		HistoryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "history_errors_total",
			Help:      "Applied transactions missing from history.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transactions, m.LedgerSequence, m.ApplyDuration, m.HistoryErrors)
	}
	return m
}

// NopMetrics returns unregistered metrics.
func NopMetrics() *Metrics {
	return NewMetrics("", nil)
}
