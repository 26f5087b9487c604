package tuple

import (
	"testing"
	"time"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

func triggerLikeDesc(t *testing.T) *TupleDescription {
	t.Helper()
	td, err := NewTupleDesc(
		[]types.Type{types.IntType, types.StringType, types.BinaryType, types.TimestampType, types.BoolType},
		[]string{"oid", "name", "qual", "created", "enabled"},
	)
	if err != nil {
		t.Fatalf("failed to create tuple desc: %v", err)
	}
	return td
}

func TestBuilderAndParserRoundTrip(t *testing.T) {
	td := triggerLikeDesc(t)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	tup, err := NewBuilder(td).
		AddOID(42).
		AddString("t1").
		AddBinary([]byte{0xde, 0xad}).
		AddTimestamp(now).
		AddBool(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	p := NewParser(tup).ExpectFields(5)
	oid := p.ReadOID()
	name := p.ReadString()
	qual := p.ReadBinary()
	created := p.ReadTimestamp()
	enabled := p.ReadBool()
	if err := p.Done(); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if oid != 42 || name != "t1" || string(qual) != "\xde\xad" || !created.Equal(now) || !enabled {
		t.Errorf("round trip mismatch: %d %q %x %v %v", oid, name, qual, created, enabled)
	}
}

func TestBuilderNulls(t *testing.T) {
	td := triggerLikeDesc(t)
	tup := NewBuilder(td).AddOID(1).AddNull().AddBinary(nil).AddTimestamp(time.Now()).AddBool(false).MustBuild()

	f, _ := tup.GetField(1)
	if f != nil {
		t.Errorf("expected NULL, got %v", f)
	}
	p := NewParser(tup)
	p.ReadOID()
	if s := p.ReadString(); s != "" {
		t.Errorf("NULL string should read as empty, got %q", s)
	}
	if b := p.ReadBinary(); b != nil {
		t.Errorf("NULL binary should read as nil, got %v", b)
	}
}

func TestBuilderErrors(t *testing.T) {
	td := triggerLikeDesc(t)

	if _, err := NewBuilder(td).AddOID(1).Build(); err == nil {
		t.Error("expected incomplete tuple error")
	}
	if _, err := NewBuilder(td).AddString("wrong").Build(); err == nil {
		t.Error("expected type mismatch error")
	}
}

func TestParserTypeMismatch(t *testing.T) {
	td := triggerLikeDesc(t)
	tup := NewBuilder(td).AddOID(1).AddString("x").AddNull().AddTimestamp(time.Now()).AddBool(true).MustBuild()

	p := NewParser(tup)
	p.ReadString()
	if p.Error() == nil {
		t.Error("expected error reading INTEGER as string")
	}
}

func TestProjectAndKey(t *testing.T) {
	td := triggerLikeDesc(t)
	tup := NewBuilder(td).AddOID(9).AddString("n").AddNull().AddTimestamp(time.Now()).AddBool(true).MustBuild()
	tup.RowID = 3

	proj, err := tup.Project([]primitives.ColumnID{1, 0})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if proj.NumFields() != 2 || proj.TupleDesc.FieldNames[0] != "name" || proj.RowID != 3 {
		t.Errorf("unexpected projection %v", proj.TupleDesc)
	}

	key, err := tup.Key([]primitives.ColumnID{0, 1})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if !key[0].Equals(types.NewIntField(9)) || !key[1].Equals(types.NewVarcharField("n")) {
		t.Errorf("unexpected key %v", key)
	}

	if _, err := tup.Project([]primitives.ColumnID{7}); err == nil {
		t.Error("expected out of bounds error")
	}
}

func TestTupleDescEquals(t *testing.T) {
	a, _ := NewTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"a", "b"})
	b, _ := NewTupleDesc([]types.Type{types.IntType, types.StringType}, nil)
	c, _ := NewTupleDesc([]types.Type{types.StringType, types.IntType}, nil)

	if !a.Equals(b) {
		t.Error("names must not take part in equality")
	}
	if a.Equals(c) {
		t.Error("different type order must not be equal")
	}
	if idx, err := a.FindFieldIndex("b"); err != nil || idx != 1 {
		t.Errorf("FindFieldIndex = %d, %v", idx, err)
	}
}
