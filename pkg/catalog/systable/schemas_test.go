package systable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
)

func TestSchemaCatalogScenario(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	txn := e.Begin()

	ok, err := sc.InsertSchema(1, "public", txn)
	require.NoError(t, err)
	require.True(t, ok)

	obj, err := sc.GetSchemaObject("public", txn)
	require.NoError(t, err)
	require.NotNil(t, obj)
	require.EqualValues(t, 1, obj.OID)
	require.Equal(t, "public", obj.Name)
	require.Equal(t, txn.ID, obj.Txn)

	ok, err = sc.InsertSchema(1, "public", txn)
	require.NoError(t, err)
	require.False(t, ok, "duplicate insert")

	ok, err = sc.DeleteSchema("public", txn)
	require.NoError(t, err)
	require.True(t, ok)

	obj, err = sc.GetSchemaObject("public", txn)
	require.NoError(t, err)
	require.Nil(t, obj)

	require.NoError(t, e.Commit(txn))
}

func TestSchemaCatalogUniqueness(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		ok, err := sc.InsertSchema(20000, "sales", txn)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = sc.InsertSchema(20001, "sales", txn)
		require.NoError(t, err)
		require.False(t, ok, "same name, new oid")

		ok, err = sc.InsertSchema(20000, "hr", txn)
		require.NoError(t, err)
		require.False(t, ok, "same oid, new name")
	})

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		all, err := sc.GetSchemaObjects(txn)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})
}

func TestSchemaCatalogVisibility(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	writer := e.Begin()
	ok, err := sc.InsertSchema(20000, "draft", writer)
	require.NoError(t, err)
	require.True(t, ok)

	reader := e.Begin()
	obj, err := sc.GetSchemaObject("draft", reader)
	require.NoError(t, err)
	require.Nil(t, obj, "uncommitted rows are invisible to other transactions")

	require.NoError(t, e.Abort(writer))

	obj, err = sc.GetSchemaObject("draft", reader)
	require.NoError(t, err)
	require.Nil(t, obj)
	require.NoError(t, e.Commit(reader))
}

func TestSchemaCatalogLookups(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		for i, name := range []string{"zeta", "alpha", "mid"} {
			ok, err := sc.InsertSchema(CatalogSchemaOID+1+primitives.OID(i), name, txn)
			require.NoError(t, err)
			require.True(t, ok)
		}
	})

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		byOID, err := sc.GetSchemaObjectByOID(CatalogSchemaOID+2, txn)
		require.NoError(t, err)
		require.NotNil(t, byOID)
		require.Equal(t, "alpha", byOID.Name)

		missing, err := sc.GetSchemaObjectByOID(9999, txn)
		require.NoError(t, err)
		require.Nil(t, missing)

		all, err := sc.GetSchemaObjects(txn)
		require.NoError(t, err)
		names := make([]string, len(all))
		for i, s := range all {
			names[i] = s.Name
		}
		require.Equal(t, []string{"alpha", "mid", "zeta"}, names)

		ok, err := sc.DeleteSchema("nope", txn)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestDeleteSchemaRemovesOnlyNamedRow(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		for i, name := range []string{"sales", "sales_archive", "hr"} {
			ok, err := sc.InsertSchema(primitives.OID(100+i), name, txn)
			require.NoError(t, err)
			require.True(t, ok)
		}
	})

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		ok, err := sc.DeleteSchema("sales", txn)
		require.NoError(t, err)
		require.True(t, ok)

		all, err := sc.GetSchemaObjects(txn)
		require.NoError(t, err)
		names := make([]string, 0, len(all))
		for _, obj := range all {
			names = append(names, obj.Name)
		}
		require.ElementsMatch(t, []string{"sales_archive", "hr"}, names)
	})
}
