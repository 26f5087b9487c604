package types

import (
	"bytes"
	"encoding/hex"

	"syscat/pkg/primitives"
)

// BinaryField is an opaque variable-length byte string (VARBINARY). The
// catalog never interprets its content.
type BinaryField struct {
	Value []byte
}

// NewBinaryField copies value so the field never aliases caller memory.
func NewBinaryField(value []byte) *BinaryField {
	return &BinaryField{Value: bytes.Clone(value)}
}

func (f *BinaryField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*BinaryField)
	if !ok {
		return false, mismatch(f, other)
	}
	return op.Holds(bytes.Compare(f.Value, o.Value)), nil
}

func (f *BinaryField) Type() Type {
	return BinaryType
}

func (f *BinaryField) String() string {
	return `\x` + hex.EncodeToString(f.Value)
}

func (f *BinaryField) Equals(other Field) bool {
	o, ok := other.(*BinaryField)
	if !ok {
		return false
	}
	return bytes.Equal(f.Value, o.Value)
}

func (f *BinaryField) Hash() (primitives.HashCode, error) {
	return fnvHash(f.Value), nil
}
