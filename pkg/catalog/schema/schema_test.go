package schema

import (
	"testing"

	"syscat/pkg/primitives"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

func namespaceSchema(t *testing.T) *Schema {
	t.Helper()
	sch, err := NewSchemaBuilder(11, "pg_namespace").
		AddPrimaryKey("schema_oid", types.IntType).
		AddNotNullColumn("schema_name", types.StringType).
		AddColumn("comment", types.StringType).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return sch
}

func TestSchemaBuilder(t *testing.T) {
	sch := namespaceSchema(t)

	if sch.NumFields() != 3 {
		t.Fatalf("expected 3 fields, got %d", sch.NumFields())
	}
	if len(sch.PrimaryKey) != 1 || sch.PrimaryKey[0] != 0 {
		t.Errorf("unexpected primary key %v", sch.PrimaryKey)
	}
	if !sch.Columns[0].NotNull {
		t.Error("primary key column must be NOT NULL")
	}
	if sch.GetFieldIndex("schema_name") != 1 || sch.GetFieldIndex("missing") != -1 {
		t.Error("GetFieldIndex returned wrong positions")
	}
	if got := sch.AllColumnIDs(); len(got) != 3 || got[2] != 2 {
		t.Errorf("AllColumnIDs = %v", got)
	}
}

func TestSchemaRejectsDuplicateColumns(t *testing.T) {
	_, err := NewSchemaBuilder(1, "t").
		AddColumn("a", types.IntType).
		AddColumn("a", types.StringType).
		Build()
	if err == nil {
		t.Error("expected duplicate column error")
	}
}

func TestSchemaCompatible(t *testing.T) {
	a := namespaceSchema(t)
	b := namespaceSchema(t).WithTable(99, "other")
	if !a.Compatible(b) {
		t.Error("same shape under another name must be compatible")
	}

	c, _ := NewSchemaBuilder(11, "pg_namespace").
		AddPrimaryKey("schema_oid", types.IntType).
		AddColumn("schema_name", types.StringType).
		AddColumn("comment", types.StringType).
		Build()
	if a.Compatible(c) {
		t.Error("dropping NOT NULL must make the schema incompatible")
	}
	if b.TableID != 99 || b.Columns[0].TableID != 99 {
		t.Error("WithTable must rebind column ownership")
	}
}

func TestValidateTuple(t *testing.T) {
	sch := namespaceSchema(t)

	ok := tuple.NewBuilder(sch.TupleDesc).AddOID(1).AddString("public").AddNull().MustBuild()
	if err := sch.ValidateTuple(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	missing := tuple.NewBuilder(sch.TupleDesc).AddOID(1).AddNull().AddNull().MustBuild()
	if err := sch.ValidateTuple(missing); err == nil {
		t.Error("expected NOT NULL violation")
	}

	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, nil)
	if err := sch.ValidateTuple(tuple.NewBuilder(td).AddInt(1).MustBuild()); err == nil {
		t.Error("expected shape mismatch")
	}
	_ = primitives.InvalidOID
}
