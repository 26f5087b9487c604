package systable

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"syscat/pkg/catalog/schema"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/expression"
	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

func TestBootstrapCreatesTableAndIndexes(t *testing.T) {
	e := newTestEngine(t)
	tc := NewTriggerCatalog(e, testDB, nil, nil, nil)
	bootstrap(t, e, tc)

	tbl, ok := e.TableByName(TriggerCatalogName)
	require.True(t, ok)
	require.Equal(t, TriggerCatalogOID, tbl.OID())
	require.True(t, tbl.Schema().Compatible(tc.Schema()))

	names := make([]string, 0)
	for _, ix := range tbl.Indexes() {
		names = append(names, ix.Name)
	}
	require.Equal(t, []string{"pg_trigger_pkey", "pg_trigger_skey0", "pg_trigger_skey1", "pg_trigger_skey2"}, names)
}

func TestBootstrapIsIdempotentAndSeedsAllocator(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	var last primitives.OID
	inTxn(t, e, func(txn *transaction.TransactionContext) {
		for _, name := range []string{"a", "b", "c"} {
			id, err := sc.AllocateObjectID()
			require.NoError(t, err)
			ok, err := sc.InsertSchema(id, name, txn)
			require.NoError(t, err)
			require.True(t, ok)
			last = id
		}
	})

	again := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, again)

	next, err := again.AllocateObjectID()
	require.NoError(t, err)
	require.Greater(t, next, last)

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		all, err := again.GetSchemaObjects(txn)
		require.NoError(t, err)
		require.Len(t, all, 3)
	})
}

func TestBootstrapRejectsMalformedOID(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)
	inTxn(t, e, func(txn *transaction.TransactionContext) {
		ok, err := sc.InsertRow([]types.Field{types.NewIntField(-7), types.NewVarcharField("broken")}, txn)
		require.NoError(t, err)
		require.True(t, ok)
	})

	txn := e.Begin()
	defer e.Abort(txn)
	err := NewSchemaCatalog(e, testDB, nil).Bootstrap(txn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a valid oid")
}

func TestBootstrapRejectsIncompatibleTable(t *testing.T) {
	t.Run("different schema", func(t *testing.T) {
		e := newTestEngine(t)
		sch := schema.NewSchemaBuilder(SchemaCatalogOID, SchemaCatalogName).
			AddPrimaryKey("schema_oid", types.IntType).
			AddColumn("schema_name", types.IntType).
			MustBuild()
		inTxn(t, e, func(txn *transaction.TransactionContext) {
			_, err := e.CreateTable(SchemaCatalogOID, SchemaCatalogName, sch, txn)
			require.NoError(t, err)
		})

		txn := e.Begin()
		defer e.Abort(txn)
		err := NewSchemaCatalog(e, testDB, nil).Bootstrap(txn)
		require.True(t, errors.Is(err, dberror.ErrCatalogBootstrap), "got %v", err)
	})

	t.Run("different oid", func(t *testing.T) {
		e := newTestEngine(t)
		sch := NewSchemaCatalog(e, testDB, nil).Schema()
		inTxn(t, e, func(txn *transaction.TransactionContext) {
			_, err := e.CreateTable(42, SchemaCatalogName, sch, txn)
			require.NoError(t, err)
		})

		txn := e.Begin()
		defer e.Abort(txn)
		err := NewSchemaCatalog(e, testDB, nil).Bootstrap(txn)
		require.True(t, errors.Is(err, dberror.ErrCatalogBootstrap), "got %v", err)
	})

	t.Run("oid taken by another table", func(t *testing.T) {
		e := newTestEngine(t)
		sch := NewSchemaCatalog(e, testDB, nil).Schema()
		inTxn(t, e, func(txn *transaction.TransactionContext) {
			_, err := e.CreateTable(SchemaCatalogOID, "imposter", sch, txn)
			require.NoError(t, err)
		})

		txn := e.Begin()
		defer e.Abort(txn)
		err := NewSchemaCatalog(e, testDB, nil).Bootstrap(txn)
		require.True(t, errors.Is(err, dberror.ErrCatalogBootstrap), "got %v", err)
	})

	t.Run("missing index", func(t *testing.T) {
		e := newTestEngine(t)
		sch := NewSchemaCatalog(e, testDB, nil).Schema()
		inTxn(t, e, func(txn *transaction.TransactionContext) {
			_, err := e.CreateTable(SchemaCatalogOID, SchemaCatalogName, sch, txn)
			require.NoError(t, err)
		})

		txn := e.Begin()
		defer e.Abort(txn)
		err := NewSchemaCatalog(e, testDB, nil).Bootstrap(txn)
		require.True(t, errors.Is(err, dberror.ErrCatalogBootstrap), "got %v", err)
	})
}

func TestBootstrapAbortDropsTable(t *testing.T) {
	e := newTestEngine(t)
	txn := e.Begin()
	require.NoError(t, NewSchemaCatalog(e, testDB, nil).Bootstrap(txn))
	require.NoError(t, e.Abort(txn))

	_, ok := e.TableByName(SchemaCatalogName)
	require.False(t, ok)
}

func TestAddIndexRejectedOnceRowsExist(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)
	inTxn(t, e, func(txn *transaction.TransactionContext) {
		ok, err := sc.InsertSchema(20000, "s", txn)
		require.NoError(t, err)
		require.True(t, ok)
	})

	err := sc.AddIndex([]primitives.ColumnID{schemaColName}, 9999, "late", primitives.ConstraintDefault)
	require.Error(t, err)
}

func TestAllocateObjectIDIsUniqueUnderConcurrency(t *testing.T) {
	e := newTestEngine(t)
	tc := NewTriggerCatalog(e, testDB, nil, nil, nil)

	const workers, perWorker = 8, 250
	var (
		mu   sync.Mutex
		seen = make(map[primitives.OID]struct{}, workers*perWorker)
	)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var prev primitives.OID
			for i := 0; i < perWorker; i++ {
				id, err := tc.AllocateObjectID()
				if err != nil {
					return err
				}
				if id <= prev {
					return errors.Newf("oid went backwards: %d after %d", id, prev)
				}
				prev = id
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, seen, workers*perWorker)

	for id := range seen {
		require.GreaterOrEqual(t, id, primitives.FirstNormalOID)
	}
}

func TestInsertRow(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		ok, err := sc.InsertRow([]types.Field{types.NewIntField(30000), types.NewVarcharField("raw")}, txn)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = sc.InsertRow([]types.Field{types.NewIntField(30001), nil}, txn)
		require.NoError(t, err)
		require.False(t, ok, "NULL in a NOT NULL column is a constraint violation")

		_, err = sc.InsertRow([]types.Field{types.NewIntField(30002)}, txn)
		require.Error(t, err, "short rows are malformed, not rejected")

		rows, err := sc.ScanByPredicate([]primitives.ColumnID{schemaColName}, expression.ColumnEquals(schemaColOID, types.NewIntField(30000)), txn)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		f, err := rows[0].GetField(0)
		require.NoError(t, err)
		require.Equal(t, "raw", f.String())
	})
}

func TestScanByPredicateEmptyIsNotNil(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	bootstrap(t, e, sc)

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		rows, err := sc.ScanByPredicate(nil, expression.ColumnEquals(schemaColName, types.NewVarcharField("nope")), txn)
		require.NoError(t, err)
		require.NotNil(t, rows)
		require.Empty(t, rows)
	})
}

func TestNilTransactionIsRejected(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSchemaCatalog(e, testDB, nil)
	tc := NewTriggerCatalog(e, testDB, stubResolver{}, nil, nil)
	bootstrap(t, e, sc)
	bootstrap(t, e, tc)

	calls := map[string]func() error{
		"Bootstrap":      func() error { return sc.Bootstrap(nil) },
		"InsertSchema":   func() error { _, err := sc.InsertSchema(1, "x", nil); return err },
		"DeleteSchema":   func() error { _, err := sc.DeleteSchema("x", nil); return err },
		"GetSchema":      func() error { _, err := sc.GetSchemaObject("x", nil); return err },
		"Scan":           func() error { _, err := sc.ScanByPredicate(nil, nil, nil); return err },
		"DeleteByPred":   func() error { _, err := sc.DeleteByPredicate(nil, nil); return err },
		"InsertTrigger":  func() error { _, _, err := tc.InsertTrigger(nil, nil); return err },
		"GetTriggerOID":  func() error { _, err := tc.GetTriggerOID("t", 1, nil); return err },
		"GetTriggers":    func() error { _, err := tc.GetTriggers(1, nil); return err },
		"GetTriggersBy":  func() error { _, err := tc.GetTriggersByType(1, 7, nil); return err },
		"DeleteTrigger":  func() error { _, err := tc.DeleteTriggerByName("t", 1, nil); return err },
		"DropTrigger":    func() error { return tc.DropTrigger("db", "tbl", "t", nil) },
		"DeleteByTable":  func() error { _, err := tc.DeleteTriggersByTable(1, nil); return err },
		"GetTriggerByID": func() error { _, err := tc.GetTriggerByOID(1, nil); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.True(t, errors.Is(err, dberror.ErrInvalidTransaction), "got %v", err)
		})
	}
}

func TestLookupUniqueReportsCorruption(t *testing.T) {
	e := newTestEngine(t)

	// Same table, but the name index does not enforce uniqueness.
	desc := newSchemaDescriptor()
	desc.indexes[1].Constraint = primitives.ConstraintDefault
	sc := &SchemaCatalog{CatalogTable: NewCatalogTable(e, desc, testDB, nil)}
	bootstrap(t, e, sc)

	inTxn(t, e, func(txn *transaction.TransactionContext) {
		for _, id := range []primitives.OID{20000, 20001} {
			ok, err := sc.InsertSchema(id, "twin", txn)
			require.NoError(t, err)
			require.True(t, ok)
		}

		obj, err := sc.GetSchemaObject("twin", txn)
		require.Error(t, err)
		require.Nil(t, obj)
		require.True(t, dberror.IsCorruption(err))
		require.Equal(t, dberror.ErrCategoryData, dberror.Category(err))
	})
}
