package transaction

import (
	"fmt"
	"sync"
	"time"
)

// TransactionStatus is where a transaction is in its lifecycle. The engine
// moves it Active, then Committing or Aborting, then Committed or Aborted.
type TransactionStatus int

const (
	TxActive TransactionStatus = iota
	TxCommitting
	TxAborting
	TxCommitted
	TxAborted
)

var statusNames = [...]string{"ACTIVE", "COMMITTING", "ABORTING", "COMMITTED", "ABORTED"}

func (ts TransactionStatus) String() string {
	if ts < TxActive || int(ts) >= len(statusNames) {
		return "UNKNOWN"
	}
	return statusNames[ts]
}

// Terminal reports whether no further transition is possible.
func (ts TransactionStatus) Terminal() bool {
	return ts == TxCommitted || ts == TxAborted
}

type TransactionStats struct {
	TuplesRead    int
	TuplesWritten int
	TuplesDeleted int
	IndexScans    int
}

// TransactionContext encapsulates all state for a single transaction.
// Visibility and conflict bookkeeping live in the storage engine, keyed by ID;
// the context carries lifecycle, statistics and per-transaction values such
// as the catalog object cache.
type TransactionContext struct {
	// Identity
	ID TransactionID

	// Lifecycle state
	status    TransactionStatus
	startTime time.Time
	endTime   time.Time
	mutex     sync.RWMutex

	// Per-transaction values, dropped when the transaction ends
	values map[any]any

	// Statistics
	tuplesRead    int
	tuplesWritten int
	tuplesDeleted int
	indexScans    int
}

func NewTransactionContext(tid TransactionID) *TransactionContext {
	return &TransactionContext{
		ID:        tid,
		status:    TxActive,
		startTime: time.Now(),
		values:    make(map[any]any),
	}
}

// IsActive returns true if the transaction is still active
func (tc *TransactionContext) IsActive() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.status == TxActive
}

func (tc *TransactionContext) GetStatus() TransactionStatus {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.status
}

// SetStatus updates the transaction status. Reaching a terminal state drops
// the per-transaction values.
func (tc *TransactionContext) SetStatus(status TransactionStatus) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.status = status
	if status.Terminal() {
		tc.endTime = time.Now()
		clear(tc.values)
	}
}

// Value returns the per-transaction value stored under key.
func (tc *TransactionContext) Value(key any) (any, bool) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	v, ok := tc.values[key]
	return v, ok
}

// SetValue stores a per-transaction value. Keys should be unexported types of
// the owning package, as with context.WithValue.
func (tc *TransactionContext) SetValue(key, value any) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.values[key] = value
}

// Statistics methods

// RecordTupleRead increments the tuples read counter
func (tc *TransactionContext) RecordTupleRead(n int) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.tuplesRead += n
}

// RecordTupleWrite increments the tuples written counter
func (tc *TransactionContext) RecordTupleWrite() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.tuplesWritten++
}

// RecordTupleDelete increments the tuples deleted counter
func (tc *TransactionContext) RecordTupleDelete(n int) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.tuplesDeleted += n
}

func (tc *TransactionContext) RecordIndexScan() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.indexScans++
}

// GetStatistics returns a snapshot of transaction statistics
func (tc *TransactionContext) GetStatistics() TransactionStats {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	return TransactionStats{
		TuplesRead:    tc.tuplesRead,
		TuplesWritten: tc.tuplesWritten,
		TuplesDeleted: tc.tuplesDeleted,
		IndexScans:    tc.indexScans,
	}
}

// Duration returns how long the transaction has been running
func (tc *TransactionContext) Duration() time.Duration {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.duration()
}

func (tc *TransactionContext) duration() time.Duration {
	endTime := tc.endTime
	if endTime.IsZero() {
		endTime = time.Now()
	}
	return endTime.Sub(tc.startTime)
}

// String returns a string representation of the transaction context
func (tc *TransactionContext) String() string {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	return fmt.Sprintf("Transaction %s [Status=%s, Duration=%v, Written=%d, Deleted=%d]",
		tc.ID, tc.status, tc.duration(), tc.tuplesWritten, tc.tuplesDeleted)
}
