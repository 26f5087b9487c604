package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	start := time.Now()
	m.ObserveOp("pg_trigger", "insert", start, true, nil)
	m.ObserveOp("pg_trigger", "insert", start, false, nil)
	m.ObserveOp("pg_trigger", "insert", start, false, errors.New("boom"))
	m.OIDAllocated("pg_trigger")
	m.CacheRefreshed("trigger_dropped")
	m.TransactionFinished("commit")

	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("pg_trigger", "insert", OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("pg_trigger", "insert", OutcomeRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("pg_trigger", "insert", OutcomeError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AllocatedOIDs.WithLabelValues("pg_trigger")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheRefreshes.WithLabelValues("trigger_dropped")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("commit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 5)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOp("pg_namespace", "scan", time.Now(), true, nil)
	m.OIDAllocated("pg_namespace")
	m.CacheRefreshed("x")
	m.TransactionFinished("abort")
}
