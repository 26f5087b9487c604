package storage

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/btree"

	"syscat/pkg/catalog/schema"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
	"syscat/pkg/tuple"
)

type txnID = transaction.TransactionID

const noTxn = transaction.InvalidTransactionID

// version is one stored copy of a row.
type version struct {
	rowID primitives.RowID
	tup   *tuple.Tuple
	xmin  txnID // creator; noTxn once committed
	xmax  txnID // deleter; noTxn while live
}

func (v *version) visibleTo(txn txnID) bool {
	return (v.xmin == noTxn || v.xmin == txn) && v.xmax != txn
}

func versionLess(a, b *version) bool {
	return a.rowID < b.rowID
}

// Table is a transactional heap of row versions plus its indexes.
type Table struct {
	oid    primitives.OID
	name   string
	schema *schema.Schema

	mu        sync.RWMutex
	rows      *btree.BTreeG[*version]
	indexes   []*index
	nextRowID primitives.RowID
	degree    int
}

func newTable(oid primitives.OID, name string, sch *schema.Schema, degree int) *Table {
	return &Table{
		oid:       oid,
		name:      name,
		schema:    sch,
		rows:      btree.NewG(degree, versionLess),
		nextRowID: 1,
		degree:    degree,
	}
}

func (t *Table) OID() primitives.OID {
	return t.oid
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Schema() *schema.Schema {
	return t.schema
}

// Indexes returns the table's index descriptors in creation order.
func (t *Table) Indexes() []IndexDescriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]IndexDescriptor, len(t.indexes))
	for i, ix := range t.indexes {
		out[i] = ix.desc
		out[i].Columns = slices.Clone(ix.desc.Columns)
	}
	return out
}

// TableStats counts what a table physically holds.
type TableStats struct {
	Versions  int // every stored version
	Committed int // committed, not pending deletion
	Pending   int // inserted or deleted by a live transaction
}

func (t *Table) Stats() TableStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s TableStats
	t.rows.Ascend(func(v *version) bool {
		s.Versions++
		if v.xmin == noTxn && v.xmax == noTxn {
			s.Committed++
		} else {
			s.Pending++
		}
		return true
	})
	return s
}

func (t *Table) String() string {
	return fmt.Sprintf("Table(%s, oid=%d, schema=%s)", t.name, t.oid, t.schema.TupleDesc)
}

func (t *Table) indexByOID(oid primitives.OID) *index {
	for _, ix := range t.indexes {
		if ix.desc.OID == oid {
			return ix
		}
	}
	return nil
}

// addIndex must be called before the table holds any rows.
func (t *Table) addIndex(desc IndexDescriptor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rows.Len() > 0 {
		return fmt.Errorf("cannot add index %s to %s: table already has rows", desc.Name, t.name)
	}
	if len(desc.Columns) == 0 {
		return fmt.Errorf("index %s has no columns", desc.Name)
	}
	for _, c := range desc.Columns {
		if int(c) >= t.schema.NumFields() {
			return fmt.Errorf("index %s: column %d out of range for %s", desc.Name, c, t.name)
		}
	}
	for _, ix := range t.indexes {
		if ix.desc.OID == desc.OID || ix.desc.Name == desc.Name {
			return fmt.Errorf("index %s (oid %d) already exists on %s", desc.Name, desc.OID, t.name)
		}
	}
	if desc.Kind == "" {
		desc.Kind = primitives.BTreeIndex
	}
	desc.Columns = slices.Clone(desc.Columns)
	t.indexes = append(t.indexes, newIndex(desc, t.degree))
	return nil
}

// insertVersion stores v in the row tree and every index. Caller holds t.mu.
func (t *Table) insertVersion(v *version) {
	t.rows.ReplaceOrInsert(v)
	for _, ix := range t.indexes {
		ix.add(v)
	}
}

// removeVersion drops v from the row tree and every index. Caller holds t.mu.
func (t *Table) removeVersion(v *version) {
	t.rows.Delete(v)
	for _, ix := range t.indexes {
		ix.remove(v)
	}
}

// uniqueViolation returns the first unique index whose key v would duplicate.
// Caller holds t.mu.
func (t *Table) uniqueViolation(v *version) *index {
	for _, ix := range t.indexes {
		if !ix.desc.Constraint.IsUnique() {
			continue
		}
		if ix.conflicts(ix.keyOf(v), v.xmin) {
			return ix
		}
	}
	return nil
}

// materialize copies a visible version for a reader, projected to columns.
// Nil columns means every column.
func materialize(v *version, columns []primitives.ColumnID) (*tuple.Tuple, error) {
	if columns == nil {
		out := v.tup.Clone()
		out.RowID = v.rowID
		return out, nil
	}
	out, err := v.tup.Project(columns)
	if err != nil {
		return nil, err
	}
	out.RowID = v.rowID
	return out, nil
}
