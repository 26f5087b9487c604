package types

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/cockroachdb/errors"

	"syscat/pkg/primitives"
)

// fnvHash computes an FNV-1a hash of the given byte slice.
func fnvHash(data []byte) primitives.HashCode {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return primitives.HashCode(h.Sum32())
}

// toBytes64 converts a uint64 value to an 8-byte big-endian slice.
func toBytes64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func mismatch(self Field, other Field) error {
	return errors.Newf("cannot compare %s with %T", self.Type(), other)
}

// CompareFields gives a total order over two fields of the same type. NULL
// sorts before every value. It returns -1, 0 or 1.
func CompareFields(a, b Field) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	less, err := a.Compare(primitives.LessThan, b)
	if err != nil {
		return 0, err
	}
	if less {
		return -1, nil
	}
	if a.Equals(b) {
		return 0, nil
	}
	return 1, nil
}

// FieldsEqual compares two possibly-NULL fields. Two NULLs are equal here,
// which is what index key matching needs.
func FieldsEqual(a, b Field) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}
