package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"syscat/pkg/expression"
	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	e := newTestEngine(t)

	committed := e.Begin()
	insert(t, e, committed, 1, 10, "a")
	insert(t, e, committed, 2, 10, "b")
	require.NoError(t, e.Commit(committed))

	pending := e.Begin()
	insert(t, e, pending, 3, 30, "uncommitted")

	var buf bytes.Buffer
	info, err := e.Save(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, info.Rows)
	require.Equal(t, buf.Len(), info.CompressedSize)
	require.NoError(t, e.Abort(pending))

	loaded, loadedInfo, err := Load(&buf, Options{})
	require.NoError(t, err)
	require.Equal(t, e.ID(), loaded.ID())
	require.Equal(t, 2, loadedInfo.Rows)

	tbl, ok := loaded.TableByName("events")
	require.True(t, ok)
	require.Len(t, tbl.Indexes(), 3)
	require.True(t, tbl.Schema().Compatible(mustTable(t, e).Schema()))

	txn := loaded.Begin()
	rows, err := loaded.ScanByPredicate(testTableOID, []primitives.ColumnID{2}, expression.ColumnEquals(1, types.NewIntField(10)), txn)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names(rows, 0))

	require.False(t, insert(t, loaded, txn, 1, 99, "dup"), "restored primary key index must still reject")
	require.True(t, insert(t, loaded, txn, 4, 10, "c"))
	rows, err = loaded.ScanByPredicate(testTableOID, nil, expression.ColumnEquals(0, types.NewIntField(4)), txn)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Greater(t, rows[0].RowID, primitives.RowID(2), "row ids continue after the restored ones")
	require.NoError(t, loaded.Commit(txn))
}

func TestSnapshotFile(t *testing.T) {
	e := newTestEngine(t)
	txn := e.Begin()
	insert(t, e, txn, 1, 10, "a")
	require.NoError(t, e.Commit(txn))

	path := filepath.Join(t.TempDir(), "nested", "catalog.snap")
	_, err := e.SaveFile(path)
	require.NoError(t, err)

	loaded, info, err := LoadFile(path, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, info.Tables)
	require.Equal(t, e.ID(), loaded.ID())

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, _, err := Load(bytes.NewReader([]byte("definitely not a snapshot")), Options{})
	require.Error(t, err)
}

func mustTable(t *testing.T, e *Engine) *Table {
	t.Helper()
	tbl, ok := e.Table(testTableOID)
	require.True(t, ok)
	return tbl
}
