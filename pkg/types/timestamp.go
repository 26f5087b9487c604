package types

import (
	"cmp"
	"time"

	"syscat/pkg/primitives"
)

// TimestampField stores an instant with microsecond precision, in UTC.
type TimestampField struct {
	Value time.Time
}

func NewTimestampField(value time.Time) *TimestampField {
	return &TimestampField{Value: value.UTC().Truncate(time.Microsecond)}
}

// NewTimestampFieldFromMicros rebuilds a timestamp from its stored form.
func NewTimestampFieldFromMicros(us int64) *TimestampField {
	return &TimestampField{Value: time.UnixMicro(us).UTC()}
}

// Micros returns the stored form of the timestamp.
func (f *TimestampField) Micros() int64 {
	return f.Value.UnixMicro()
}

func (f *TimestampField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*TimestampField)
	if !ok {
		return false, mismatch(f, other)
	}
	return op.Holds(cmp.Compare(f.Micros(), o.Micros())), nil
}

func (f *TimestampField) Type() Type {
	return TimestampType
}

func (f *TimestampField) String() string {
	return f.Value.Format("2006-01-02 15:04:05.999999")
}

func (f *TimestampField) Equals(other Field) bool {
	o, ok := other.(*TimestampField)
	if !ok {
		return false
	}
	return f.Value.Equal(o.Value)
}

func (f *TimestampField) Hash() (primitives.HashCode, error) {
	return fnvHash(toBytes64(uint64(f.Micros()))), nil // #nosec G115
}
