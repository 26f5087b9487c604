package tuple

import (
	"fmt"
	"strings"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// Tuple represents a row of data in the database. A nil field is SQL NULL.
type Tuple struct {
	TupleDesc *TupleDescription // Schema of this tuple
	fields    []types.Field     // The actual field values
	RowID     primitives.RowID  // Where this tuple is stored (InvalidRowID if not stored)
}

// NewTuple creates a new tuple with the given schema
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// SetField stores field at position i. A nil field clears the slot to NULL.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	if field != nil {
		expectedType, _ := t.TupleDesc.TypeAtIndex(i)
		if field.Type() != expectedType {
			return fmt.Errorf("field type mismatch: expected %v, got %v",
				expectedType, field.Type())
		}
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value of the ith field
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// NumFields returns the arity of the tuple.
func (t *Tuple) NumFields() int {
	return len(t.fields)
}

// String returns a string representation of this tuple
// Format: field1\tfield2\tfield3\t...\tfieldN\n
func (t *Tuple) String() string {
	parts := make([]string, 0, len(t.fields))
	for _, field := range t.fields {
		if field != nil {
			parts = append(parts, field.String())
		} else {
			parts = append(parts, "null")
		}
	}
	return strings.Join(parts, "\t") + "\n"
}

// Clone creates a copy of this tuple. Fields are immutable values and are shared.
func (t *Tuple) Clone() *Tuple {
	newTup := NewTuple(t.TupleDesc)
	copy(newTup.fields, t.fields)
	newTup.RowID = t.RowID
	return newTup
}

// Project builds a new tuple holding only the listed columns, in order.
func (t *Tuple) Project(columns []primitives.ColumnID) (*Tuple, error) {
	td, err := t.TupleDesc.Project(columns)
	if err != nil {
		return nil, err
	}

	out := NewTuple(td)
	for i, col := range columns {
		out.fields[i] = t.fields[col]
	}
	out.RowID = t.RowID
	return out, nil
}

// Key extracts the values of the listed columns, e.g. to form an index key.
func (t *Tuple) Key(columns []primitives.ColumnID) ([]types.Field, error) {
	key := make([]types.Field, len(columns))
	for i, col := range columns {
		f, err := t.GetField(int(col))
		if err != nil {
			return nil, err
		}
		key[i] = f
	}
	return key, nil
}
