package tuple

import (
	"time"

	"github.com/cockroachdb/errors"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// Builder fills a tuple left to right. The first failure sticks and is
// reported by Build; later Add calls are ignored.
type Builder struct {
	tuple *Tuple
	next  int
	err   error
}

func NewBuilder(td *TupleDescription) *Builder {
	return &Builder{tuple: NewTuple(td)}
}

func (b *Builder) AddInt(value int64) *Builder {
	return b.AddField(types.NewIntField(value))
}

// AddOID stores an object identifier in an integer column.
func (b *Builder) AddOID(value primitives.OID) *Builder {
	return b.AddInt(int64(value))
}

func (b *Builder) AddString(value string) *Builder {
	return b.AddField(types.NewVarcharField(value))
}

func (b *Builder) AddBool(value bool) *Builder {
	return b.AddField(types.NewBoolField(value))
}

// AddBinary stores a nil slice as NULL.
func (b *Builder) AddBinary(value []byte) *Builder {
	if value == nil {
		return b.AddNull()
	}
	return b.AddField(types.NewBinaryField(value))
}

func (b *Builder) AddTimestamp(value time.Time) *Builder {
	return b.AddField(types.NewTimestampField(value))
}

// AddNull skips the current column, leaving it NULL.
func (b *Builder) AddNull() *Builder {
	if b.err == nil && b.next >= b.tuple.NumFields() {
		b.err = errors.Newf("field %d: beyond tuple arity %d", b.next, b.tuple.NumFields())
	}
	if b.err == nil {
		b.next++
	}
	return b
}

func (b *Builder) AddField(field types.Field) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.tuple.SetField(b.next, field); err != nil {
		b.err = errors.Wrapf(err, "field %d", b.next)
		return b
	}
	b.next++
	return b
}

// Build returns the tuple once every column has been added or skipped.
func (b *Builder) Build() (*Tuple, error) {
	switch {
	case b.err != nil:
		return nil, b.err
	case b.next != b.tuple.NumFields():
		return nil, errors.Newf("incomplete tuple: %d of %d fields set", b.next, b.tuple.NumFields())
	}
	return b.tuple, nil
}

// MustBuild panics where Build would fail. Catalog row encoders use it for
// rows whose shape is fixed at compile time.
func (b *Builder) MustBuild() *Tuple {
	t, err := b.Build()
	if err != nil {
		panic(errors.Wrap(err, "tuple builder"))
	}
	return t
}
