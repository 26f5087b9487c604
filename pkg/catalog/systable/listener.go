package systable

import (
	"fmt"

	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
)

// ChangeKind says what happened to a table's metadata.
type ChangeKind int

const (
	TriggerCreated ChangeKind = iota + 1
	TriggerDropped
	TableDropped
)

func (k ChangeKind) String() string {
	switch k {
	case TriggerCreated:
		return "trigger_created"
	case TriggerDropped:
		return "trigger_dropped"
	case TableDropped:
		return "table_dropped"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// MetadataListener is told about catalog changes that invalidate state
// derived from catalog rows, such as a table's cached trigger list. It is
// called synchronously inside txn, after the catalog rows changed.
type MetadataListener interface {
	OnMetadataChanged(tableOID primitives.OID, kind ChangeKind, txn *transaction.TransactionContext) error
}

// ListenerFunc adapts a function to MetadataListener.
type ListenerFunc func(tableOID primitives.OID, kind ChangeKind, txn *transaction.TransactionContext) error

func (f ListenerFunc) OnMetadataChanged(tableOID primitives.OID, kind ChangeKind, txn *transaction.TransactionContext) error {
	return f(tableOID, kind, txn)
}

// TableResolver finds a table by database and table name. A nil object with
// a nil error means the table does not exist.
type TableResolver interface {
	ResolveTable(databaseName, tableName string, txn *transaction.TransactionContext) (*TableObject, error)
}
