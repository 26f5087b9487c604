package storage

import (
	"github.com/cockroachdb/errors"

	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/expression"
	"syscat/pkg/primitives"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

// InsertTuple stores tup in the table on behalf of txn. It returns false when
// the row violates a primary key, unique or NOT NULL constraint; any other
// failure is an error.
func (e *Engine) InsertTuple(tableOID primitives.OID, tup *tuple.Tuple, txn *transaction.TransactionContext) (bool, error) {
	_, err := e.insert(tableOID, tup, txn)
	if errors.Is(err, dberror.ErrConstraintViolation) {
		e.log.Debug("insert rejected", "table", uint32(tableOID), "reason", err.Error())
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insert is InsertTuple with constraint violations reported as
// dberror.ErrConstraintViolation and the new row id returned.
func (e *Engine) insert(tableOID primitives.OID, tup *tuple.Tuple, txn *transaction.TransactionContext) (primitives.RowID, error) {
	if err := checkTxn("InsertTuple", txn); err != nil {
		return primitives.InvalidRowID, err
	}
	t, err := e.table("InsertTuple", tableOID)
	if err != nil {
		return primitives.InvalidRowID, err
	}
	if tup == nil || !tup.TupleDesc.Equals(t.schema.TupleDesc) {
		return primitives.InvalidRowID, errors.Newf("tuple does not match the shape of %s", t.name)
	}
	if err := t.schema.ValidateTuple(tup); err != nil {
		return primitives.InvalidRowID, dberror.ConstraintViolation(t.name, err.Error())
	}

	stored := tuple.NewTuple(t.schema.TupleDesc)
	for i := 0; i < tup.NumFields(); i++ {
		f, _ := tup.GetField(i)
		if err := stored.SetField(i, f); err != nil {
			return primitives.InvalidRowID, err
		}
	}

	t.mu.Lock()
	v := &version{rowID: t.nextRowID, tup: stored, xmin: txn.ID}
	if ix := t.uniqueViolation(v); ix != nil {
		t.mu.Unlock()
		return primitives.InvalidRowID, dberror.ConstraintViolation(t.name, "duplicate key for index "+ix.desc.Name)
	}
	t.nextRowID++
	t.insertVersion(v)
	t.mu.Unlock()

	e.recordInsert(txn.ID, t, v)
	txn.RecordTupleWrite()
	return v.rowID, nil
}

// ScanByPredicate returns the rows visible to txn that satisfy pred, projected
// to columns (nil for every column). When the predicate fixes every column of
// an index by equality, that index drives the scan and rows come back in index
// order; otherwise rows come back in insertion order.
func (e *Engine) ScanByPredicate(tableOID primitives.OID, columns []primitives.ColumnID, pred expression.Expr, txn *transaction.TransactionContext) ([]*tuple.Tuple, error) {
	if err := checkTxn("ScanByPredicate", txn); err != nil {
		return nil, err
	}
	t, err := e.table("ScanByPredicate", tableOID)
	if err != nil {
		return nil, err
	}
	if err := expression.Validate(pred, t.schema.TupleDesc); err != nil {
		return nil, errors.Wrapf(err, "scan of %s", t.name)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	matches, err := t.collect(pred, txn.ID)
	if err != nil {
		return nil, err
	}
	txn.RecordTupleRead(len(matches))
	return project(matches, columns)
}

// IndexScan returns the rows visible to txn whose key in the given index
// starts with keys, in index order.
func (e *Engine) IndexScan(tableOID, indexOID primitives.OID, keys []types.Field, txn *transaction.TransactionContext) ([]*tuple.Tuple, error) {
	if err := checkTxn("IndexScan", txn); err != nil {
		return nil, err
	}
	t, err := e.table("IndexScan", tableOID)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	ix := t.indexByOID(indexOID)
	if ix == nil {
		return nil, errors.Newf("table %s has no index with oid %d", t.name, indexOID)
	}
	if err := ix.checkKey(t, keys); err != nil {
		return nil, err
	}

	var matches []*version
	ix.ascendPrefix(keys, func(v *version) bool {
		if v.visibleTo(txn.ID) {
			matches = append(matches, v)
		}
		return true
	})
	txn.RecordIndexScan()
	txn.RecordTupleRead(len(matches))
	return project(matches, nil)
}

// DeleteByPredicate marks every row visible to txn that satisfies pred as
// deleted by txn and returns how many there were.
func (e *Engine) DeleteByPredicate(tableOID primitives.OID, pred expression.Expr, txn *transaction.TransactionContext) (int, error) {
	if err := checkTxn("DeleteByPredicate", txn); err != nil {
		return 0, err
	}
	t, err := e.table("DeleteByPredicate", tableOID)
	if err != nil {
		return 0, err
	}
	if err := expression.Validate(pred, t.schema.TupleDesc); err != nil {
		return 0, errors.Wrapf(err, "delete from %s", t.name)
	}

	t.mu.Lock()
	matches, err := t.collect(pred, txn.ID)
	if err == nil {
		err = t.markDeleted(matches, txn.ID)
	}
	t.mu.Unlock()
	if err != nil {
		return 0, err
	}

	e.finishDelete(t, matches, txn)
	return len(matches), nil
}

// DeleteByIndex deletes the rows visible to txn whose key in the given index
// starts with keys.
func (e *Engine) DeleteByIndex(tableOID, indexOID primitives.OID, keys []types.Field, txn *transaction.TransactionContext) (int, error) {
	if err := checkTxn("DeleteByIndex", txn); err != nil {
		return 0, err
	}
	t, err := e.table("DeleteByIndex", tableOID)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	ix := t.indexByOID(indexOID)
	if ix == nil {
		t.mu.Unlock()
		return 0, errors.Newf("table %s has no index with oid %d", t.name, indexOID)
	}
	if err := ix.checkKey(t, keys); err != nil {
		t.mu.Unlock()
		return 0, err
	}
	var matches []*version
	ix.ascendPrefix(keys, func(v *version) bool {
		if v.visibleTo(txn.ID) {
			matches = append(matches, v)
		}
		return true
	})
	err = t.markDeleted(matches, txn.ID)
	t.mu.Unlock()
	if err != nil {
		return 0, err
	}

	txn.RecordIndexScan()
	e.finishDelete(t, matches, txn)
	return len(matches), nil
}

func (e *Engine) finishDelete(t *Table, deleted []*version, txn *transaction.TransactionContext) {
	if len(deleted) == 0 {
		return
	}
	e.recordDelete(txn.ID, t, deleted)
	txn.RecordTupleDelete(len(deleted))
}

// collect returns the versions visible to txn that satisfy pred, using an
// index when the predicate pins one down. Caller holds t.mu.
func (t *Table) collect(pred expression.Expr, txn txnID) ([]*version, error) {
	var (
		matches []*version
		evalErr error
	)
	visit := func(v *version) bool {
		if !v.visibleTo(txn) {
			return true
		}
		ok, err := expression.Matches(pred, v.tup)
		if err != nil {
			evalErr = err
			return false
		}
		if ok {
			matches = append(matches, v)
		}
		return true
	}

	if ix, key := t.chooseIndex(pred); ix != nil {
		ix.ascendPrefix(key, visit)
	} else {
		t.rows.Ascend(visit)
	}
	return matches, evalErr
}

// chooseIndex picks the index whose every column is fixed by an equality in
// pred, preferring unique indexes and then wider keys.
func (t *Table) chooseIndex(pred expression.Expr) (*index, []types.Field) {
	eq := expression.EqualityKeys(pred)
	if len(eq) == 0 {
		return nil, nil
	}

	var (
		best    *index
		bestKey []types.Field
	)
	for _, ix := range t.indexes {
		key := make([]types.Field, 0, len(ix.desc.Columns))
		for _, c := range ix.desc.Columns {
			f, ok := eq[c]
			if !ok {
				break
			}
			key = append(key, f)
		}
		if len(key) != len(ix.desc.Columns) {
			continue
		}
		if best == nil || better(ix, best) {
			best, bestKey = ix, key
		}
	}
	return best, bestKey
}

func better(a, b *index) bool {
	au, bu := a.desc.Constraint.IsUnique(), b.desc.Constraint.IsUnique()
	if au != bu {
		return au
	}
	return len(a.desc.Columns) > len(b.desc.Columns)
}

// markDeleted sets xmax on every version or on none of them. Caller holds t.mu.
func (t *Table) markDeleted(vs []*version, txn txnID) error {
	for _, v := range vs {
		if v.xmax != noTxn && v.xmax != txn {
			return dberror.WriteConflict(t.name, int64(v.xmax))
		}
	}
	for _, v := range vs {
		v.xmax = txn
	}
	return nil
}

func project(vs []*version, columns []primitives.ColumnID) ([]*tuple.Tuple, error) {
	out := make([]*tuple.Tuple, 0, len(vs))
	for _, v := range vs {
		tup, err := materialize(v, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, tup)
	}
	return out, nil
}
