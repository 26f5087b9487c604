// Package oid hands out object identifiers for catalog rows.
package oid

import (
	"math"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"syscat/pkg/primitives"
)

// ErrExhausted is returned once the oid space of an allocator is used up.
var ErrExhausted = errors.New("object identifier space exhausted")

// Allocator is a lock-free, monotonically increasing oid counter. Each
// catalog table owns one. Handed-out oids are never returned, whether the
// transaction that asked for them commits or not, so gaps are possible and
// duplicates are not.
type Allocator struct {
	next atomic.Uint64
}

// NewAllocator starts allocation at primitives.FirstNormalOID.
func NewAllocator() *Allocator {
	a := &Allocator{}
	a.next.Store(uint64(primitives.FirstNormalOID))
	return a
}

// Next returns a fresh oid, strictly greater than every oid this allocator
// returned or observed before.
func (a *Allocator) Next() (primitives.OID, error) {
	for {
		cur := a.next.Load()
		if cur > math.MaxUint32 {
			return primitives.InvalidOID, ErrExhausted
		}
		if a.next.CompareAndSwap(cur, cur+1) {
			return primitives.OID(cur), nil
		}
	}
}

// Observe moves the counter past used, typically the highest oid found in a
// catalog table at bootstrap. Observing a lower value is a no-op.
func (a *Allocator) Observe(used primitives.OID) {
	want := uint64(used) + 1
	for {
		cur := a.next.Load()
		if cur >= want {
			return
		}
		if a.next.CompareAndSwap(cur, want) {
			return
		}
	}
}

// Peek returns the oid the next call to Next would hand out.
func (a *Allocator) Peek() primitives.OID {
	cur := a.next.Load()
	if cur > math.MaxUint32 {
		return primitives.InvalidOID
	}
	return primitives.OID(cur)
}
