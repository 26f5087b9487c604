package tables

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/schema"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
	"syscat/pkg/trigger"
)

// TriggerSource reads the triggers recorded for a table.
type TriggerSource interface {
	GetTriggers(tableOID primitives.OID, txn *transaction.TransactionContext) (*trigger.TriggerList, error)
}

// Table is the runtime handle of a user table: identity, schema and the
// triggers currently defined on it.
type Table struct {
	OID         primitives.OID
	DatabaseOID primitives.OID
	SchemaOID   primitives.OID
	Name        string
	Schema      *schema.Schema

	mu       sync.RWMutex
	triggers *trigger.TriggerList
	source   TriggerSource
}

// NewTable creates a table handle with an empty trigger list.
func NewTable(oid, databaseOID, schemaOID primitives.OID, name string, sch *schema.Schema) *Table {
	return &Table{
		OID:         oid,
		DatabaseOID: databaseOID,
		SchemaOID:   schemaOID,
		Name:        name,
		Schema:      sch,
		triggers:    &trigger.TriggerList{},
	}
}

// GetID returns the table's oid
func (t *Table) GetID() primitives.OID {
	return t.OID
}

// Triggers returns the cached trigger list. The list is a copy and never nil.
func (t *Table) Triggers() *trigger.TriggerList {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return trigger.NewTriggerList(t.triggers.All()...)
}

// RefreshTriggerCache rereads the table's triggers through txn and replaces
// the cached list. On error the old list is kept.
func (t *Table) RefreshTriggerCache(txn *transaction.TransactionContext) error {
	t.mu.RLock()
	source := t.source
	t.mu.RUnlock()
	if source == nil {
		return errors.Newf("table %s is not attached to a trigger source", t.Name)
	}

	list, err := source.GetTriggers(t.OID, txn)
	if err != nil {
		return errors.Wrapf(err, "refresh triggers of %s", t.Name)
	}

	t.mu.Lock()
	t.triggers = list
	t.mu.Unlock()
	return nil
}

func (t *Table) attach(source TriggerSource) {
	t.mu.Lock()
	t.source = source
	t.mu.Unlock()
}

// String returns a string representation of the table
func (t *Table) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("Table(%s, oid=%d, db=%d, schema=%s, triggers=%d)",
		t.Name, t.OID, t.DatabaseOID, t.Schema.TupleDesc, t.triggers.Len())
}
