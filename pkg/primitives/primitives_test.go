package primitives

import "testing"

func TestOIDValidity(t *testing.T) {
	if InvalidOID.IsValid() {
		t.Error("InvalidOID must not be valid")
	}
	if !FirstNormalOID.IsValid() {
		t.Error("FirstNormalOID must be valid")
	}
	if got := OID(42).String(); got != "OID(42)" {
		t.Errorf("unexpected string %q", got)
	}
}

func TestIndexConstraint(t *testing.T) {
	tests := []struct {
		c      IndexConstraint
		unique bool
		name   string
	}{
		{ConstraintDefault, false, "DEFAULT"},
		{ConstraintPrimaryKey, true, "PRIMARY_KEY"},
		{ConstraintUnique, true, "UNIQUE"},
	}
	for _, tt := range tests {
		if tt.c.IsUnique() != tt.unique {
			t.Errorf("%s: IsUnique = %v, want %v", tt.name, tt.c.IsUnique(), tt.unique)
		}
		if tt.c.String() != tt.name {
			t.Errorf("String = %q, want %q", tt.c.String(), tt.name)
		}
	}
}

func TestPredicateString(t *testing.T) {
	want := map[Predicate]string{
		Equals:             "=",
		LessThan:           "<",
		GreaterThanOrEqual: ">=",
		NotEqual:           "!=",
		Predicate(17):      "UNKNOWN",
		Predicate(-1):      "UNKNOWN",
	}
	for p, s := range want {
		if got := p.String(); got != s {
			t.Errorf("Predicate(%d).String() = %q, want %q", int(p), got, s)
		}
	}
	if Predicate(17).Valid() {
		t.Error("out of range predicate reported valid")
	}
}

func TestPredicateHolds(t *testing.T) {
	tests := []struct {
		p          Predicate
		lt, eq, gt bool
	}{
		{Equals, false, true, false},
		{LessThan, true, false, false},
		{GreaterThan, false, false, true},
		{LessThanOrEqual, true, true, false},
		{GreaterThanOrEqual, false, true, true},
		{NotEqual, true, false, true},
		{Predicate(42), false, false, false},
	}
	for _, tt := range tests {
		if tt.p.Holds(-1) != tt.lt || tt.p.Holds(0) != tt.eq || tt.p.Holds(5) != tt.gt {
			t.Errorf("%s: Holds(-1,0,5) = %v %v %v", tt.p, tt.p.Holds(-1), tt.p.Holds(0), tt.p.Holds(5))
		}
	}
}
