package systable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
	"syscat/pkg/storage"
)

const testDB primitives.OID = 1

func newTestEngine(t *testing.T) *storage.Engine {
	t.Helper()
	return storage.NewEngine(storage.Options{BTreeDegree: 4})
}

// bootstrap creates table in its own committed transaction.
func bootstrap(t *testing.T, e *storage.Engine, table SystemTable) {
	t.Helper()
	txn := e.Begin()
	require.NoError(t, table.Bootstrap(txn))
	require.NoError(t, e.Commit(txn))
}

// inTxn runs fn in a fresh transaction and commits it.
func inTxn(t *testing.T, e *storage.Engine, fn func(txn *transaction.TransactionContext)) {
	t.Helper()
	txn := e.Begin()
	fn(txn)
	require.NoError(t, e.Commit(txn))
}

// stubResolver resolves "db.table" keys to fixed objects.
type stubResolver map[string]*TableObject

func (r stubResolver) ResolveTable(databaseName, tableName string, _ *transaction.TransactionContext) (*TableObject, error) {
	return r[databaseName+"."+tableName], nil
}

type notification struct {
	table primitives.OID
	kind  ChangeKind
}

// recordingListener remembers every notification it receives.
type recordingListener struct {
	mu  sync.Mutex
	got []notification
	err error
}

func (l *recordingListener) OnMetadataChanged(tableOID primitives.OID, kind ChangeKind, _ *transaction.TransactionContext) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, notification{tableOID, kind})
	return l.err
}

func (l *recordingListener) notifications() []notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]notification(nil), l.got...)
}
