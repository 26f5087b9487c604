// Package metrics exposes Prometheus instruments for catalog operations.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "syscat"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected" // constraint violation, or nothing to delete
	OutcomeError    = "error"
)

type Metrics struct {
	Operations     *prometheus.CounterVec
	Latency        *prometheus.HistogramVec
	AllocatedOIDs  *prometheus.CounterVec
	CacheRefreshes *prometheus.CounterVec
	Transactions   *prometheus.CounterVec
}

// New creates the instruments and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "operations_total",
			Help:      "Catalog table operations by catalog, operation and outcome.",
		}, []string{"catalog", "op", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "operation_seconds",
			Help:      "Latency of catalog table operations.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"catalog", "op"}),
		AllocatedOIDs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "allocated_oids_total",
			Help:      "Object identifiers handed out per catalog.",
		}, []string{"catalog"}),
		CacheRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tables",
			Name:      "trigger_cache_refreshes_total",
			Help:      "Trigger list cache refreshes by cause.",
		}, []string{"cause"}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "transactions_total",
			Help:      "Finished transactions by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.Operations, m.Latency, m.AllocatedOIDs, m.CacheRefreshes, m.Transactions)
	}
	return m
}

// ObserveOp records one catalog operation started at start.
func (m *Metrics) ObserveOp(catalog, op string, start time.Time, ok bool, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case !ok:
		outcome = OutcomeRejected
	}
	m.Operations.WithLabelValues(catalog, op, outcome).Inc()
	m.Latency.WithLabelValues(catalog, op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) OIDAllocated(catalog string) {
	if m == nil {
		return
	}
	m.AllocatedOIDs.WithLabelValues(catalog).Inc()
}

func (m *Metrics) CacheRefreshed(cause string) {
	if m == nil {
		return
	}
	m.CacheRefreshes.WithLabelValues(cause).Inc()
}

func (m *Metrics) TransactionFinished(outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(outcome).Inc()
}
