package tuple

import (
	"fmt"
	"time"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// Parser provides a fluent interface for parsing tuples sequentially
// It mirrors the Builder pattern but for reading instead of writing
type Parser struct {
	tuple        *Tuple
	currentIndex int
	err          error
}

// NewParser creates a new tuple parser for the given tuple
func NewParser(t *Tuple) *Parser {
	return &Parser{tuple: t}
}

// ExpectFields validates that the tuple has the expected number of fields
// This should be called immediately after NewParser for validation
func (p *Parser) ExpectFields(count int) *Parser {
	if p.err != nil {
		return p
	}
	if p.tuple.TupleDesc.NumFields() != count {
		p.err = fmt.Errorf("invalid tuple: expected %d fields, got %d",
			count, p.tuple.TupleDesc.NumFields())
	}
	return p
}

// next returns the current field (nil for NULL) and advances.
func (p *Parser) next() types.Field {
	if p.err != nil {
		return nil
	}
	if p.currentIndex >= p.tuple.TupleDesc.NumFields() {
		p.err = fmt.Errorf("read beyond tuple bounds at field %d", p.currentIndex)
		return nil
	}

	field, err := p.tuple.GetField(p.currentIndex)
	if err != nil {
		p.err = fmt.Errorf("field %d: %w", p.currentIndex, err)
		return nil
	}
	p.currentIndex++
	return field
}

func (p *Parser) fail(field types.Field, want string) {
	p.err = fmt.Errorf("field %d: expected %s, got %T", p.currentIndex-1, want, field)
}

// ReadInt64 reads an integer field at the current index and advances. NULL reads as 0.
func (p *Parser) ReadInt64() int64 {
	field := p.next()
	if field == nil {
		return 0
	}
	f, ok := field.(*types.IntField)
	if !ok {
		p.fail(field, "IntField")
		return 0
	}
	return f.Value
}

// ReadInt reads an integer field as int
func (p *Parser) ReadInt() int {
	return int(p.ReadInt64())
}

// ReadOID reads an integer field as an object identifier
func (p *Parser) ReadOID() primitives.OID {
	v := p.ReadInt64()
	if p.err == nil && (v < 0 || v > int64(^uint32(0))) {
		p.err = fmt.Errorf("field %d: %d is not a valid oid", p.currentIndex-1, v)
		return primitives.InvalidOID
	}
	return primitives.OID(v)
}

// ReadString reads a string field at the current index and advances. NULL reads as "".
func (p *Parser) ReadString() string {
	field := p.next()
	if field == nil {
		return ""
	}
	f, ok := field.(*types.StringField)
	if !ok {
		p.fail(field, "StringField")
		return ""
	}
	return f.Value
}

// ReadBool reads a boolean field at the current index and advances
func (p *Parser) ReadBool() bool {
	field := p.next()
	if field == nil {
		return false
	}
	f, ok := field.(*types.BoolField)
	if !ok {
		p.fail(field, "BoolField")
		return false
	}
	return f.Value
}

// ReadBinary reads a varbinary field; NULL reads as nil
func (p *Parser) ReadBinary() []byte {
	field := p.next()
	if field == nil {
		return nil
	}
	f, ok := field.(*types.BinaryField)
	if !ok {
		p.fail(field, "BinaryField")
		return nil
	}
	return f.Value
}

// ReadTimestamp reads a timestamp field and returns it as time.Time
func (p *Parser) ReadTimestamp() time.Time {
	field := p.next()
	if field == nil {
		return time.Time{}
	}
	f, ok := field.(*types.TimestampField)
	if !ok {
		p.fail(field, "TimestampField")
		return time.Time{}
	}
	return f.Value
}

// ReadField reads a generic field at the current index and advances
func (p *Parser) ReadField() types.Field {
	return p.next()
}

// Error returns any accumulated parsing error
func (p *Parser) Error() error {
	return p.err
}

// Done checks that all fields have been read and returns any error
// Use this at the end of parsing to ensure the entire tuple was consumed
func (p *Parser) Done() error {
	if p.err != nil {
		return p.err
	}
	if p.currentIndex != p.tuple.TupleDesc.NumFields() {
		return fmt.Errorf("incomplete parsing: read %d of %d fields",
			p.currentIndex, p.tuple.TupleDesc.NumFields())
	}
	return nil
}
