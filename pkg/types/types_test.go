package types

import (
	"testing"
	"time"

	"syscat/pkg/primitives"
)

func TestFieldCompare(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b Field
		op   primitives.Predicate
		want bool
	}{
		{"int equal", NewIntField(7), NewIntField(7), primitives.Equals, true},
		{"int less", NewIntField(3), NewIntField(7), primitives.LessThan, true},
		{"int greater", NewIntField(3), NewIntField(7), primitives.GreaterThan, false},
		{"string equal", NewVarcharField("t1"), NewVarcharField("t1"), primitives.Equals, true},
		{"string less", NewVarcharField("a"), NewVarcharField("b"), primitives.LessThan, true},
		{"string not equal", NewVarcharField("a"), NewVarcharField("b"), primitives.NotEqual, true},
		{"bool order", NewBoolField(false), NewBoolField(true), primitives.LessThan, true},
		{"binary equal", NewBinaryField([]byte{1, 2}), NewBinaryField([]byte{1, 2}), primitives.Equals, true},
		{"binary less", NewBinaryField([]byte{1}), NewBinaryField([]byte{1, 0}), primitives.LessThan, true},
		{"timestamp less", NewTimestampField(now), NewTimestampField(now.Add(time.Second)), primitives.LessThan, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.op, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare(%v) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestCompareMismatchedTypes(t *testing.T) {
	if _, err := NewIntField(1).Compare(primitives.Equals, NewVarcharField("1")); err == nil {
		t.Error("expected error comparing INTEGER with VARCHAR")
	}
}

func TestCompareFieldsNullOrdering(t *testing.T) {
	c, err := CompareFields(nil, NewIntField(0))
	if err != nil || c != -1 {
		t.Errorf("NULL should sort first, got %d (%v)", c, err)
	}
	c, _ = CompareFields(NewIntField(2), NewIntField(2))
	if c != 0 {
		t.Errorf("expected 0, got %d", c)
	}
	c, _ = CompareFields(NewIntField(3), NewIntField(2))
	if c != 1 {
		t.Errorf("expected 1, got %d", c)
	}
	if !FieldsEqual(nil, nil) || FieldsEqual(nil, NewIntField(1)) {
		t.Error("FieldsEqual NULL handling is wrong")
	}
}

func TestStringFieldTruncation(t *testing.T) {
	f := NewStringField("abcdef", 3)
	if f.Value != "abc" {
		t.Errorf("expected truncated value, got %q", f.Value)
	}
	if !f.Equals(NewStringField("abc", 10)) {
		t.Error("MaxSize must not affect equality")
	}
	if g := NewStringField("h\u00e9llo", 2); g.Value != "h" {
		t.Errorf("expected cut at rune boundary, got %q", g.Value)
	}
}

func TestBinaryFieldCopiesInput(t *testing.T) {
	buf := []byte{1, 2, 3}
	f := NewBinaryField(buf)
	buf[0] = 9
	if f.Value[0] != 1 {
		t.Error("BinaryField must not alias caller memory")
	}
}

func TestTimestampRoundTripMicros(t *testing.T) {
	ts := NewTimestampField(time.Date(2024, 1, 2, 3, 4, 5, 6789000, time.UTC))
	back := NewTimestampFieldFromMicros(ts.Micros())
	if !ts.Equals(back) {
		t.Errorf("expected %v, got %v", ts, back)
	}
}

func TestParseType(t *testing.T) {
	for name, want := range map[string]Type{
		"int": IntType, "VARCHAR": StringType, "bool": BoolType,
		"varbinary": BinaryType, "timestamp": TimestampType,
	} {
		got, err := ParseType(name)
		if err != nil || got != want {
			t.Errorf("ParseType(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseType("float"); err == nil {
		t.Error("expected error for unsupported type")
	}
}
