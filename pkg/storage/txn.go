package storage

import (
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
)

// writeSet is what a transaction changed, kept so that commit and abort can
// finish or undo it.
type writeSet struct {
	inserted      map[*Table][]*version
	deleted       map[*Table][]*version
	createdTables []primitives.OID
	droppedTables []primitives.OID
}

func (e *Engine) writeSet(tid txnID) *writeSet {
	e.txnMu.Lock()
	defer e.txnMu.Unlock()

	ws, ok := e.writeSets[tid]
	if !ok {
		ws = &writeSet{
			inserted: make(map[*Table][]*version),
			deleted:  make(map[*Table][]*version),
		}
		e.writeSets[tid] = ws
	}
	return ws
}

func (e *Engine) takeWriteSet(tid txnID) *writeSet {
	e.txnMu.Lock()
	defer e.txnMu.Unlock()

	ws := e.writeSets[tid]
	delete(e.writeSets, tid)
	return ws
}

func (e *Engine) recordInsert(tid txnID, t *Table, v *version) {
	ws := e.writeSet(tid)
	e.txnMu.Lock()
	ws.inserted[t] = append(ws.inserted[t], v)
	e.txnMu.Unlock()
}

func (e *Engine) recordDelete(tid txnID, t *Table, vs []*version) {
	ws := e.writeSet(tid)
	e.txnMu.Lock()
	ws.deleted[t] = append(ws.deleted[t], vs...)
	e.txnMu.Unlock()
}

func (e *Engine) recordTableChange(tid txnID, oid primitives.OID, dropped bool) {
	ws := e.writeSet(tid)
	e.txnMu.Lock()
	if dropped {
		ws.droppedTables = append(ws.droppedTables, oid)
	} else {
		ws.createdTables = append(ws.createdTables, oid)
	}
	e.txnMu.Unlock()
}

// Begin starts a transaction.
func (e *Engine) Begin() *transaction.TransactionContext {
	txn := e.txns.Begin()
	e.log.Debug("transaction started", "tx_id", int64(txn.ID))
	return txn
}

// Commit makes the transaction's inserts visible to everyone and removes the
// rows it deleted.
func (e *Engine) Commit(txn *transaction.TransactionContext) error {
	if err := checkTxn("Commit", txn); err != nil {
		return err
	}
	txn.SetStatus(transaction.TxCommitting)

	if ws := e.takeWriteSet(txn.ID); ws != nil {
		for t, vs := range ws.deleted {
			t.mu.Lock()
			for _, v := range vs {
				if v.xmax == txn.ID {
					t.removeVersion(v)
				}
			}
			t.mu.Unlock()
		}
		for t, vs := range ws.inserted {
			t.mu.Lock()
			for _, v := range vs {
				if v.xmin == txn.ID {
					v.xmin = noTxn
				}
			}
			t.mu.Unlock()
		}
		for _, oid := range ws.droppedTables {
			e.removeTable(oid)
		}
	}

	txn.SetStatus(transaction.TxCommitted)
	e.txns.Finish(txn.ID)
	e.metrics.TransactionFinished("commit")
	e.log.Debug("transaction committed", "tx_id", int64(txn.ID))
	return nil
}

// Abort undoes everything the transaction did.
func (e *Engine) Abort(txn *transaction.TransactionContext) error {
	if err := checkTxn("Abort", txn); err != nil {
		return err
	}
	txn.SetStatus(transaction.TxAborting)

	if ws := e.takeWriteSet(txn.ID); ws != nil {
		for t, vs := range ws.inserted {
			t.mu.Lock()
			for _, v := range vs {
				t.removeVersion(v)
			}
			t.mu.Unlock()
		}
		for t, vs := range ws.deleted {
			t.mu.Lock()
			for _, v := range vs {
				if v.xmax == txn.ID {
					v.xmax = noTxn
				}
			}
			t.mu.Unlock()
		}
		for _, oid := range ws.createdTables {
			e.removeTable(oid)
		}
	}

	txn.SetStatus(transaction.TxAborted)
	e.txns.Finish(txn.ID)
	e.metrics.TransactionFinished("abort")
	e.log.Debug("transaction aborted", "tx_id", int64(txn.ID))
	return nil
}

// ActiveTransactions counts transactions that have begun and not finished.
func (e *Engine) ActiveTransactions() int {
	return len(e.txns.Active())
}
