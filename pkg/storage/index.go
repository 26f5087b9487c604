package storage

import (
	"fmt"
	"strings"

	"github.com/google/btree"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// IndexDescriptor describes one index of a table.
type IndexDescriptor struct {
	OID        primitives.OID
	Name       string
	Columns    []primitives.ColumnID
	Constraint primitives.IndexConstraint
	Kind       primitives.IndexKind
}

func (d IndexDescriptor) String() string {
	cols := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("%s(%s) %s %s", d.Name, strings.Join(cols, ","), d.Constraint, d.Kind)
}

type indexEntry struct {
	key   []types.Field
	rowID primitives.RowID
	v     *version
}

// compareKeys orders keys field by field. A key that is a prefix of another
// sorts first, which lets a short pivot start a prefix scan.
func compareKeys(a, b []types.Field) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		// Key types are checked on insert and on scan, so the error is unreachable.
		c, _ := types.CompareFields(a[i], b[i])
		if c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func entryLess(a, b indexEntry) bool {
	if c := compareKeys(a.key, b.key); c != 0 {
		return c < 0
	}
	return a.rowID < b.rowID
}

func hasPrefix(key, prefix []types.Field) bool {
	if len(prefix) > len(key) {
		return false
	}
	for i := range prefix {
		if !types.FieldsEqual(key[i], prefix[i]) {
			return false
		}
	}
	return true
}

type index struct {
	desc IndexDescriptor
	tree *btree.BTreeG[indexEntry]
}

func newIndex(desc IndexDescriptor, degree int) *index {
	return &index{
		desc: desc,
		tree: btree.NewG(degree, entryLess),
	}
}

func (ix *index) keyOf(v *version) []types.Field {
	key, _ := v.tup.Key(ix.desc.Columns)
	return key
}

func (ix *index) add(v *version) {
	ix.tree.ReplaceOrInsert(indexEntry{key: ix.keyOf(v), rowID: v.rowID, v: v})
}

func (ix *index) remove(v *version) {
	ix.tree.Delete(indexEntry{key: ix.keyOf(v), rowID: v.rowID})
}

// ascendPrefix visits, in key order, every version whose key starts with prefix.
func (ix *index) ascendPrefix(prefix []types.Field, fn func(*version) bool) {
	ix.tree.AscendGreaterOrEqual(indexEntry{key: prefix}, func(e indexEntry) bool {
		if !hasPrefix(e.key, prefix) {
			return false
		}
		return fn(e.v)
	})
}

// conflicts reports whether key is held by a version that txn has not deleted.
// Keys containing NULL never conflict.
func (ix *index) conflicts(key []types.Field, txn txnID) bool {
	for _, f := range key {
		if f == nil {
			return false
		}
	}
	found := false
	ix.ascendPrefix(key, func(v *version) bool {
		if v.xmax != txn {
			found = true
			return false
		}
		return true
	})
	return found
}

// checkKey validates caller-supplied key values against the index column types.
func (ix *index) checkKey(t *Table, key []types.Field) error {
	if len(key) == 0 || len(key) > len(ix.desc.Columns) {
		return fmt.Errorf("index %s takes 1 to %d key values, got %d", ix.desc.Name, len(ix.desc.Columns), len(key))
	}
	for i, f := range key {
		if f == nil {
			continue
		}
		want, _ := t.schema.TupleDesc.TypeAtIndex(int(ix.desc.Columns[i]))
		if f.Type() != want {
			return fmt.Errorf("index %s key %d: expected %s, got %s", ix.desc.Name, i, want, f.Type())
		}
	}
	return nil
}
