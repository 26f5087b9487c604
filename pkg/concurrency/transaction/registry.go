package transaction

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// ErrUnknownTransaction is returned for an id the registry does not hold.
var ErrUnknownTransaction = errors.New("unknown transaction")

// TransactionRegistry hands out transaction ids and holds each context until
// the engine finishes it.
type TransactionRegistry struct {
	mu     sync.RWMutex
	live   map[TransactionID]*TransactionContext
	lastID atomic.Int64
}

func NewTransactionRegistry() *TransactionRegistry {
	return &TransactionRegistry{live: make(map[TransactionID]*TransactionContext)}
}

// Begin allocates the next id and registers a fresh context for it.
func (r *TransactionRegistry) Begin() *TransactionContext {
	txn := NewTransactionContext(TransactionID(r.lastID.Add(1)))

	r.mu.Lock()
	r.live[txn.ID] = txn
	r.mu.Unlock()
	return txn
}

// Lookup returns the context registered under id.
func (r *TransactionRegistry) Lookup(id TransactionID) (*TransactionContext, error) {
	r.mu.RLock()
	txn, ok := r.live[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTransaction, "%s", id)
	}
	return txn, nil
}

// Finish forgets id. Finishing an unknown id is a no-op.
func (r *TransactionRegistry) Finish(id TransactionID) {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
}

// Active returns the registered contexts still in TxActive, oldest first.
func (r *TransactionRegistry) Active() []*TransactionContext {
	r.mu.RLock()
	out := make([]*TransactionContext, 0, len(r.live))
	for _, txn := range r.live {
		if txn.IsActive() {
			out = append(out, txn)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *TransactionContext) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Len is the number of registered contexts, finished or not.
func (r *TransactionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}
