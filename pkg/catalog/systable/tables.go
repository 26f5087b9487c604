package systable

import (
	"fmt"
	"slices"
	"strings"

	"syscat/pkg/catalog/catalogio"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// TableObject is a snapshot of one pg_table row.
type TableObject struct {
	OID         primitives.OID
	Name        string
	SchemaOID   primitives.OID
	DatabaseOID primitives.OID
	Txn         transaction.TransactionID
}

func (t *TableObject) String() string {
	return fmt.Sprintf("table %s (oid %d, schema %d, database %d)", t.Name, t.OID, t.SchemaOID, t.DatabaseOID)
}

// TableCatalog is pg_table. Table names are unique per database.
type TableCatalog struct {
	*CatalogTable[*TableObject]
}

func NewTableCatalog(access catalogio.CatalogAccess, dbOID primitives.OID, m *metrics.Metrics) *TableCatalog {
	return &TableCatalog{CatalogTable: NewCatalogTable(access, newTableDescriptor(), dbOID, m)}
}

// InsertTable records a table. It returns false if the oid, or the name
// within the database, is taken.
func (tc *TableCatalog) InsertTable(obj *TableObject, txn TxContext) (bool, error) {
	return tc.Insert(obj, txn)
}

// DeleteTable removes the row of the table with the given oid.
func (tc *TableCatalog) DeleteTable(id primitives.OID, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteTable", TableCatalogName)
	}
	return tc.DeleteByIndex(TablePkeyOID, []types.Field{types.NewIntField(int64(id))}, txn)
}

// GetTableObject returns the table called name in the database, or nil.
func (tc *TableCatalog) GetTableObject(dbOID primitives.OID, name string, txn TxContext) (*TableObject, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetTableObject", TableCatalogName)
	}
	return tc.LookupUnique(TableSkey0OID, []types.Field{
		types.NewIntField(int64(dbOID)),
		types.NewVarcharField(name),
	}, txn)
}

// GetTableObjectByOID returns the table with the given oid, or nil.
func (tc *TableCatalog) GetTableObjectByOID(id primitives.OID, txn TxContext) (*TableObject, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetTableObjectByOID", TableCatalogName)
	}
	return tc.LookupUnique(TablePkeyOID, []types.Field{types.NewIntField(int64(id))}, txn)
}

// GetTableObjects lists the tables of a database ordered by name.
func (tc *TableCatalog) GetTableObjects(dbOID primitives.OID, txn TxContext) ([]*TableObject, error) {
	tables, err := tc.IndexScan(TableSkey1OID, []types.Field{types.NewIntField(int64(dbOID))}, txn)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tables, func(a, b *TableObject) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tables, nil
}
