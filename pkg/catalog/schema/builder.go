package schema

import (
	"github.com/cockroachdb/errors"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// ColumnDef is one column as a DDL caller declares it. A primary key
// column is always NOT NULL.
type ColumnDef struct {
	Name         string
	Type         types.Type
	IsPrimaryKey bool
	NotNull      bool
}

// SchemaBuilder lays columns out in the order they are added.
type SchemaBuilder struct {
	tableID   primitives.OID
	tableName string
	defs      []ColumnDef
}

func NewSchemaBuilder(tableID primitives.OID, tableName string) *SchemaBuilder {
	return &SchemaBuilder{tableID: tableID, tableName: tableName}
}

// Add appends def as declared.
func (sb *SchemaBuilder) Add(def ColumnDef) *SchemaBuilder {
	if def.IsPrimaryKey {
		def.NotNull = true
	}
	sb.defs = append(sb.defs, def)
	return sb
}

func (sb *SchemaBuilder) AddColumn(name string, fieldType types.Type) *SchemaBuilder {
	return sb.Add(ColumnDef{Name: name, Type: fieldType})
}

func (sb *SchemaBuilder) AddNotNullColumn(name string, fieldType types.Type) *SchemaBuilder {
	return sb.Add(ColumnDef{Name: name, Type: fieldType, NotNull: true})
}

// AddPrimaryKey may be called more than once for a composite key.
func (sb *SchemaBuilder) AddPrimaryKey(name string, fieldType types.Type) *SchemaBuilder {
	return sb.Add(ColumnDef{Name: name, Type: fieldType, IsPrimaryKey: true})
}

func (sb *SchemaBuilder) Build() (*Schema, error) {
	columns := make([]ColumnMetadata, len(sb.defs))
	for i, def := range sb.defs {
		col, err := NewColumnMetadata(def.Name, def.Type, primitives.ColumnID(i), sb.tableID, def.IsPrimaryKey, def.NotNull)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d of %s", i, sb.tableName)
		}
		columns[i] = *col
	}
	return NewSchema(sb.tableID, sb.tableName, columns)
}

// MustBuild is Build for the fixed catalog schemas.
func (sb *SchemaBuilder) MustBuild() *Schema {
	sch, err := sb.Build()
	if err != nil {
		panic(errors.Wrapf(err, "schema %s", sb.tableName))
	}
	return sch
}

// BuildColumns builds a schema from defs in one call.
func BuildColumns(tableID primitives.OID, tableName string, defs ...ColumnDef) (*Schema, error) {
	sb := NewSchemaBuilder(tableID, tableName)
	for _, def := range defs {
		sb.Add(def)
	}
	return sb.Build()
}
