package types

import (
	"cmp"
	"strconv"

	"syscat/pkg/primitives"
)

// BoolField represents a boolean field type in the database.
// It is also the result type of evaluating a comparison or conjunction.
type BoolField struct {
	Value bool // The boolean value stored in this field
}

// NewBoolField creates a new BoolField instance with the specified boolean value.
func NewBoolField(value bool) *BoolField {
	return &BoolField{Value: value}
}

// Compare orders false before true.
func (b *BoolField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*BoolField)
	if !ok {
		return false, mismatch(b, other)
	}
	return op.Holds(cmp.Compare(boolRank(b.Value), boolRank(o.Value))), nil
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (b *BoolField) Type() Type {
	return BoolType
}

func (b *BoolField) String() string {
	return strconv.FormatBool(b.Value)
}

func (b *BoolField) Equals(other Field) bool {
	o, ok := other.(*BoolField)
	if !ok {
		return false
	}
	return b.Value == o.Value
}

func (b *BoolField) Hash() (primitives.HashCode, error) {
	return primitives.HashCode(boolRank(b.Value)), nil
}
