package tuple

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// TupleDescription is the row shape of a catalog or user table: one type
// per column and, optionally, one name per column.
type TupleDescription struct {
	Types      []types.Type
	FieldNames []string // nil for anonymous rows such as index keys
}

// NewTupleDesc copies its arguments. fieldNames may be nil; otherwise it must
// name every field.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) == 0 {
		return nil, errors.New("tuple description needs at least one field")
	}
	if fieldNames != nil && len(fieldNames) != len(fieldTypes) {
		return nil, errors.Newf("%d field names for %d fields", len(fieldNames), len(fieldTypes))
	}
	return &TupleDescription{
		Types:      slices.Clone(fieldTypes),
		FieldNames: slices.Clone(fieldNames),
	}, nil
}

func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

func (td *TupleDescription) checkIndex(i int) error {
	if i < 0 || i >= len(td.Types) {
		return errors.Newf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return nil
}

func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if err := td.checkIndex(i); err != nil {
		return 0, err
	}
	return td.Types[i], nil
}

// Equals compares field types only.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	return other != nil && slices.Equal(td.Types, other.Types)
}

// Project returns the description of the listed columns, in the listed order.
// Index key descriptions are built this way.
func (td *TupleDescription) Project(columns []primitives.ColumnID) (*TupleDescription, error) {
	out := &TupleDescription{Types: make([]types.Type, 0, len(columns))}
	if td.FieldNames != nil {
		out.FieldNames = make([]string, 0, len(columns))
	}
	for _, col := range columns {
		if err := td.checkIndex(int(col)); err != nil {
			return nil, err
		}
		out.Types = append(out.Types, td.Types[col])
		if out.FieldNames != nil {
			out.FieldNames = append(out.FieldNames, td.FieldNames[col])
		}
	}
	if len(out.Types) == 0 {
		return nil, errors.New("projection needs at least one column")
	}
	return out, nil
}

// String renders "INTEGER(oid),VARCHAR(relname)". Anonymous fields
// print as null.
func (td *TupleDescription) String() string {
	var sb strings.Builder
	for i, t := range td.Types {
		if i > 0 {
			sb.WriteByte(',')
		}
		name := "null"
		if td.FieldNames != nil {
			name = td.FieldNames[i]
		}
		sb.WriteString(t.String())
		sb.WriteByte('(')
		sb.WriteString(name)
		sb.WriteByte(')')
	}
	return sb.String()
}

// FindFieldIndex returns the position of the named field.
func (td *TupleDescription) FindFieldIndex(fieldName string) (int, error) {
	if i := slices.Index(td.FieldNames, fieldName); i >= 0 {
		return i, nil
	}
	return -1, errors.Newf("column %s not found", fieldName)
}
