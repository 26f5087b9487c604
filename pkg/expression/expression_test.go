package expression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"syscat/pkg/primitives"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

func triggerRow(t *testing.T) *tuple.Tuple {
	t.Helper()
	td, err := tuple.NewTupleDesc(
		[]types.Type{types.IntType, types.IntType, types.StringType, types.StringType},
		[]string{"oid", "tgrelid", "tgname", "tgfoid"},
	)
	require.NoError(t, err)
	return tuple.NewBuilder(td).AddOID(16384).AddOID(42).AddString("audit").AddNull().MustBuild()
}

func TestMatches(t *testing.T) {
	row := triggerRow(t)

	tests := []struct {
		name string
		expr Expr
		want bool
	}{
		{"nil matches all", nil, true},
		{"empty conjunction", And(), true},
		{"equal int", ColumnEquals(1, types.NewIntField(42)), true},
		{"equal string", ColumnEquals(2, types.NewVarcharField("audit")), true},
		{"unequal string", ColumnEquals(2, types.NewVarcharField("other")), false},
		{"constant on left", Equal(Const(types.NewIntField(42)), Column(1, types.IntType)), true},
		{"greater than", Compare(primitives.GreaterThan, Column(0, types.IntType), Const(types.NewIntField(100))), true},
		{"conjunction", And(ColumnEquals(2, types.NewVarcharField("audit")), ColumnEquals(1, types.NewIntField(42))), true},
		{"conjunction one false", And(ColumnEquals(2, types.NewVarcharField("audit")), ColumnEquals(1, types.NewIntField(7))), false},
		{"null column", ColumnEquals(3, types.NewVarcharField("fn")), false},
		{"null constant", Equal(Column(1, types.IntType), Const(nil)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(tt.expr, row)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMatchesTypeMismatch(t *testing.T) {
	_, err := Matches(ColumnEquals(1, types.NewVarcharField("42")), triggerRow(t))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	td := triggerRow(t).TupleDesc

	require.NoError(t, Validate(And(ColumnEquals(1, types.NewIntField(1)), ColumnEquals(2, types.NewVarcharField("x"))), td))
	require.Error(t, Validate(ColumnEquals(9, types.NewIntField(1)), td))
	require.Error(t, Validate(Equal(Column(1, types.StringType), Const(types.NewVarcharField("x"))), td))
	require.Error(t, Validate(Equal(Column(1, types.IntType), Const(types.NewVarcharField("x"))), td))
	require.Error(t, Validate(Column(1, types.IntType), td))
	require.Error(t, Validate(&Comparison{Op: primitives.Predicate(99), Left: Column(1, types.IntType), Right: Const(types.NewIntField(1))}, td))
}

func TestAndFlattens(t *testing.T) {
	a := ColumnEquals(0, types.NewIntField(1))
	b := ColumnEquals(1, types.NewIntField(2))
	c := ColumnEquals(2, types.NewVarcharField("x"))

	conj := And(And(a, b), nil, c)
	require.Len(t, conj.Terms, 3)
	require.Equal(t, "($0 = 1) AND ($1 = 2) AND ($2 = 'x')", conj.String())
}

func TestEqualityKeys(t *testing.T) {
	keys := EqualityKeys(And(
		ColumnEquals(2, types.NewVarcharField("audit")),
		Equal(Const(types.NewIntField(42)), Column(1, types.IntType)),
		Compare(primitives.LessThan, Column(0, types.IntType), Const(types.NewIntField(5))),
	))
	require.Len(t, keys, 2)
	require.True(t, keys[1].Equals(types.NewIntField(42)))
	require.True(t, keys[2].Equals(types.NewVarcharField("audit")))

	conflicting := EqualityKeys(And(
		ColumnEquals(1, types.NewIntField(1)),
		ColumnEquals(1, types.NewIntField(2)),
	))
	require.Empty(t, conflicting)

	require.Empty(t, EqualityKeys(nil))
}
