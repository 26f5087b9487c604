package schema

import (
	"fmt"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// ColumnMetadata represents comprehensive metadata for a single column in a table schema.
type ColumnMetadata struct {
	Name      string              // Column name
	FieldType types.Type          // Column data type
	Position  primitives.ColumnID // Column position in tuple (0-indexed)
	IsPrimary bool                // Whether this column is part of the primary key
	NotNull   bool                // Whether NULL is rejected on insert
	TableID   primitives.OID      // Table this column belongs to
}

// NewColumnMetadata creates a new ColumnMetadata instance.
// Primary key columns are always NOT NULL.
func NewColumnMetadata(name string, fieldType types.Type, position primitives.ColumnID, tableID primitives.OID, isPrimary, notNull bool) (*ColumnMetadata, error) {
	if name == "" {
		return nil, fmt.Errorf("column name cannot be empty")
	}

	if !types.IsValidType(fieldType) {
		return nil, fmt.Errorf("invalid field type %d for column '%s'", fieldType, name)
	}

	return &ColumnMetadata{
		Name:      name,
		FieldType: fieldType,
		Position:  position,
		IsPrimary: isPrimary,
		NotNull:   notNull || isPrimary,
		TableID:   tableID,
	}, nil
}

// sameShape compares everything but the owning table.
func (c ColumnMetadata) sameShape(o ColumnMetadata) bool {
	return c.Name == o.Name &&
		c.FieldType == o.FieldType &&
		c.Position == o.Position &&
		c.IsPrimary == o.IsPrimary &&
		c.NotNull == o.NotNull
}
