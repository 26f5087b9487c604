package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"syscat/pkg/catalog"
	"syscat/pkg/catalog/schema"
	"syscat/pkg/config"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMetricsMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := catalog.Open(config.Default(), catalog.WithMetrics(metrics.New(reg)))
	require.NoError(t, err)

	txn := c.Begin()
	_, err = c.CreateDatabase("shop", txn)
	require.NoError(t, err)
	sch := schema.NewSchemaBuilder(primitives.InvalidOID, "orders").AddPrimaryKey("id", types.IntType).MustBuild()
	_, err = c.CreateTable("shop", "public", "orders", sch, txn)
	require.NoError(t, err)
	require.NoError(t, c.Commit(txn))

	srv := httptest.NewServer(newMetricsMux(c, reg))
	defer srv.Close()

	code, body := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "OK", body)

	code, body = get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "syscat_user_tables 1")
	require.Contains(t, body, "syscat_active_transactions 0")
	require.Contains(t, body, `syscat_catalog_operations_total{catalog="pg_table",op="insert",outcome="ok"}`)
	require.Contains(t, body, `syscat_storage_transactions_total{outcome="commit"}`)
}
