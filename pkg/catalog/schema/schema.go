package schema

import (
	"slices"

	"github.com/cockroachdb/errors"

	"syscat/pkg/primitives"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

// Schema represents a complete table schema with metadata and helper methods.
// A Schema is immutable once built.
type Schema struct {
	TupleDesc *tuple.TupleDescription
	TableID   primitives.OID
	TableName string

	// PrimaryKey lists the primary key column positions in declaration order.
	PrimaryKey []primitives.ColumnID

	// Column metadata
	Columns []ColumnMetadata

	// Fast lookup indices
	fieldNameToIndex map[string]int
}

// NewSchema creates a new Schema from column metadata.
func NewSchema(tableID primitives.OID, tableName string, columns []ColumnMetadata) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.New("schema must have at least one column")
	}

	sortedCols := slices.Clone(columns)
	slices.SortFunc(sortedCols, func(a, b ColumnMetadata) int {
		return int(a.Position) - int(b.Position)
	})

	fieldTypes := make([]types.Type, len(sortedCols))
	fieldNames := make([]string, len(sortedCols))
	fieldNameToIndex := make(map[string]int, len(sortedCols))
	var primaryKey []primitives.ColumnID

	for i, col := range sortedCols {
		if col.Position != primitives.ColumnID(i) {
			return nil, errors.Newf("column '%s' has position %d, expected %d", col.Name, col.Position, i)
		}
		if _, dup := fieldNameToIndex[col.Name]; dup {
			return nil, errors.Newf("duplicate column name '%s'", col.Name)
		}
		fieldTypes[i] = col.FieldType
		fieldNames[i] = col.Name
		fieldNameToIndex[col.Name] = i

		if col.IsPrimary {
			primaryKey = append(primaryKey, col.Position)
		}
	}

	tupleDesc, err := tuple.NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		return nil, errors.Wrap(err, "tuple description")
	}

	return &Schema{
		TupleDesc:        tupleDesc,
		TableID:          tableID,
		TableName:        tableName,
		PrimaryKey:       primaryKey,
		Columns:          sortedCols,
		fieldNameToIndex: fieldNameToIndex,
	}, nil
}

// GetFieldIndex returns the field index for a given field name.
// Returns -1 if the field doesn't exist.
func (s *Schema) GetFieldIndex(fieldName string) int {
	if idx, ok := s.fieldNameToIndex[fieldName]; ok {
		return idx
	}
	return -1
}

// HasColumn returns true if the schema contains a column with the given name.
func (s *Schema) HasColumn(fieldName string) bool {
	_, ok := s.fieldNameToIndex[fieldName]
	return ok
}

// NumFields returns the number of fields in the schema.
func (s *Schema) NumFields() int {
	return len(s.Columns)
}

// AllColumnIDs lists every column position in order.
func (s *Schema) AllColumnIDs() []primitives.ColumnID {
	ids := make([]primitives.ColumnID, len(s.Columns))
	for i := range s.Columns {
		ids[i] = primitives.ColumnID(i)
	}
	return ids
}

// FieldNames returns a slice of all field names in order.
func (s *Schema) FieldNames() []string {
	return slices.Clone(s.TupleDesc.FieldNames)
}

// Compatible reports whether two schemas describe the same row shape:
// identical columns, types, positions and constraints. Table name and id
// are not compared.
func (s *Schema) Compatible(other *Schema) bool {
	if other == nil || len(s.Columns) != len(other.Columns) {
		return false
	}
	for i := range s.Columns {
		if !s.Columns[i].sameShape(other.Columns[i]) {
			return false
		}
	}
	return true
}

// WithTable returns a copy of the schema bound to the given table oid and name.
func (s *Schema) WithTable(tableID primitives.OID, tableName string) *Schema {
	cols := slices.Clone(s.Columns)
	for i := range cols {
		cols[i].TableID = tableID
	}
	out, _ := NewSchema(tableID, tableName, cols)
	return out
}

// ValidateTuple checks arity, column types and NOT NULL constraints.
func (s *Schema) ValidateTuple(t *tuple.Tuple) error {
	if t == nil {
		return errors.New("tuple cannot be nil")
	}
	if !t.TupleDesc.Equals(s.TupleDesc) {
		return errors.Newf("tuple shape %s does not match table %s (%s)", t.TupleDesc, s.TableName, s.TupleDesc)
	}
	for i, col := range s.Columns {
		f, _ := t.GetField(i)
		if f == nil && col.NotNull {
			return errors.Newf("column '%s' of %s violates NOT NULL", col.Name, s.TableName)
		}
	}
	return nil
}
