package primitives

import (
	"fmt"
	"math"
)

// OID is an object identifier: a unique-within-its-catalog integer naming a
// metadata object (database, schema, table, index, trigger, ...).
type OID uint32

// ColumnID identifies a column position within a table (0-indexed).
type ColumnID uint32

// RowID uniquely identifies a row version within a table. Row ids are handed
// out in insertion order, so ordering by RowID is insertion order.
type RowID uint64

// HashCode represents a hash value used for fast comparisons.
type HashCode uint64

// Sentinel values for invalid/unset identifiers
const (
	// InvalidOID marks "no object"; no catalog row ever carries it.
	InvalidOID OID = 0

	// FirstNormalOID is the first oid handed out by an allocator. Everything
	// below it is reserved for objects created by bootstrap.
	FirstNormalOID OID = 16384

	InvalidColumnID ColumnID = math.MaxUint32

	InvalidRowID RowID = 0
)

// IsValid reports whether the oid names an object.
func (o OID) IsValid() bool {
	return o != InvalidOID
}

func (o OID) String() string {
	return fmt.Sprintf("OID(%d)", uint32(o))
}
