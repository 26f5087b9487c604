package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, snapshot string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--snapshot", snapshot, "--log-level", "ERROR"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, snapshot string, args ...string) string {
	t.Helper()
	out, err := runCmd(t, snapshot, args...)
	require.NoError(t, err, "catalogctl %v", args)
	return out
}

func TestCatalogctlSession(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "catalog.snap")

	out := mustRun(t, snap, "bootstrap")
	require.Contains(t, out, "6 catalog tables, 0 user tables")
	_, err := os.Stat(snap)
	require.NoError(t, err)

	require.Contains(t, mustRun(t, snap, "database", "create", "shop"), "database shop created")
	require.Contains(t, mustRun(t, snap, "schema", "create", "sales"), "schema sales created")

	out = mustRun(t, snap, "schema", "get")
	require.Contains(t, out, "pg_catalog")
	require.Contains(t, out, "public")
	require.Contains(t, out, "sales")

	out = mustRun(t, snap, "table", "create", "shop", "sales", "orders", "id:int:pk", "customer:string:notnull", "paid:bool")
	require.Contains(t, out, "table shop.orders created")

	out = mustRun(t, snap, "trigger", "create", "shop", "orders", "audit",
		"--timing", "before", "--events", "insert,update", "--function", "audit_fn")
	require.Contains(t, out, "trigger audit created")

	out = mustRun(t, snap, "trigger", "list", "shop", "orders")
	require.Contains(t, out, "audit")
	require.Contains(t, out, "BEFORE INSERT OR UPDATE FOR EACH ROW")
	require.Contains(t, out, "(1 row)")

	_, err = runCmd(t, snap, "trigger", "create", "shop", "orders", "audit", "--function", "audit_fn")
	require.Error(t, err)

	out = mustRun(t, snap, "table", "list", "shop")
	require.Contains(t, out, "orders")
	require.Contains(t, out, "sales")

	_, err = runCmd(t, snap, "schema", "drop", "sales")
	require.Error(t, err, "schema still holds a table")

	mustRun(t, snap, "trigger", "drop", "shop", "orders", "audit")
	out = mustRun(t, snap, "trigger", "list", "shop", "orders")
	require.Contains(t, out, "(0 rows)")

	_, err = runCmd(t, snap, "trigger", "drop", "shop", "orders", "audit")
	require.Error(t, err)

	mustRun(t, snap, "table", "drop", "shop", "orders")
	require.Contains(t, mustRun(t, snap, "schema", "drop", "sales"), "schema sales dropped")

	out = mustRun(t, snap, "stats")
	require.Contains(t, out, "pg_trigger")
	require.Contains(t, out, "snapshot "+snap)
}

func TestCatalogctlRequiresSnapshot(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"bootstrap"})
	require.Error(t, cmd.Execute())
}

func TestParseColumn(t *testing.T) {
	def, err := parseColumn("id:int:pk")
	require.NoError(t, err)
	require.True(t, def.IsPrimaryKey)

	def, err = parseColumn("name:varchar:notnull")
	require.NoError(t, err)
	require.True(t, def.NotNull)

	for _, bad := range []string{"id", ":int", "id:float", "id:int:unique", "a:b:c:d"} {
		_, err := parseColumn(bad)
		require.Error(t, err, bad)
	}
}
