package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypeBits(t *testing.T) {
	tests := []struct {
		typ     Type
		str     string
		before  bool
		after   bool
		row     bool
		inserts bool
	}{
		{BeforeInsertRow, "BEFORE INSERT FOR EACH ROW", true, false, true, true},
		{AfterDeleteRow, "AFTER DELETE FOR EACH ROW", false, true, true, false},
		{AfterUpdateStatement, "AFTER UPDATE FOR EACH STATEMENT", false, true, false, false},
		{InsteadOfInsertRow, "INSTEAD OF INSERT FOR EACH ROW", false, false, true, true},
		{TypeRow | TypeInsert | TypeUpdate, "AFTER INSERT OR UPDATE FOR EACH ROW", false, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			require.NoError(t, tt.typ.Validate())
			require.Equal(t, tt.str, tt.typ.String())
			require.Equal(t, tt.before, tt.typ.IsBefore())
			require.Equal(t, tt.after, tt.typ.IsAfter())
			require.Equal(t, tt.row, tt.typ.IsRow())
			require.Equal(t, tt.inserts, tt.typ.Fires(TypeInsert))
		})
	}

	require.Equal(t, Type(7), BeforeInsertRow)
	require.Error(t, TypeRow.Validate(), "no event")
	require.Error(t, (TypeBefore | TypeInstead | TypeInsert).Validate())
	require.Error(t, Type(1<<10|int16(TypeInsert)).Validate())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("before", "row", "insert")
	require.NoError(t, err)
	require.Equal(t, BeforeInsertRow, typ)

	typ, err = ParseType("AFTER", "statement", "Update")
	require.NoError(t, err)
	require.Equal(t, AfterUpdateStatement, typ)

	typ, err = ParseType("", "", "insert", "delete")
	require.NoError(t, err)
	require.Equal(t, TypeRow|TypeInsert|TypeDelete, typ)

	typ, err = ParseType("instead of", "row", "insert")
	require.NoError(t, err)
	require.Equal(t, InsteadOfInsertRow, typ)

	_, err = ParseType("during", "row", "insert")
	require.Error(t, err)
	_, err = ParseType("after", "row", "select")
	require.Error(t, err)
	_, err = ParseType("after", "row")
	require.Error(t, err, "no event")
}

func TestTriggerValidate(t *testing.T) {
	tr := Trigger{Name: "audit", TableOID: 42, Type: AfterInsertRow}
	require.NoError(t, tr.Validate())

	tr.Name = ""
	require.Error(t, tr.Validate())

	tr = Trigger{Name: "audit", Type: AfterInsertRow}
	require.Error(t, tr.Validate())
}

func TestTriggerEqualIgnoresReader(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6789, time.UTC)
	a := Trigger{OID: 1, TableOID: 2, Name: "x", Type: AfterInsertRow, Condition: []byte{1}, Timestamp: ts, Txn: 5}
	b := a
	b.Txn = 9
	b.Timestamp = ts.Truncate(time.Microsecond)
	require.True(t, a.Equal(&b))

	b.Condition = []byte{2}
	require.False(t, a.Equal(&b))
}

func TestTriggerList(t *testing.T) {
	var empty TriggerList
	require.Zero(t, empty.Len())
	require.Empty(t, empty.Names())

	cond := []byte{0xAA}
	l := NewTriggerList(
		Trigger{Name: "a", Type: BeforeInsertRow, Condition: cond},
		Trigger{Name: "b", Type: AfterDeleteRow},
		Trigger{Name: "c", Type: BeforeInsertRow},
	)
	cond[0] = 0x00
	require.Equal(t, []byte{0xAA}, l.Get(0).Condition, "list must not alias caller memory")

	require.Equal(t, []string{"a", "b", "c"}, l.Names())
	require.Equal(t, []string{"a", "c"}, l.ByType(BeforeInsertRow).Names())
	require.True(t, l.HasType(AfterDeleteRow))
	require.False(t, l.HasType(AfterUpdateRow))
	require.NotNil(t, l.ByType(AfterUpdateRow))

	got, ok := l.Find("b")
	require.True(t, ok)
	require.Equal(t, AfterDeleteRow, got.Type)
	_, ok = l.Find("zzz")
	require.False(t, ok)

	all := l.All()
	all[0].Name = "mutated"
	require.Equal(t, "a", l.Get(0).Name)
}
