// Package catalogio declares what the catalog needs from the storage engine.
// Catalog tables only ever talk to storage through these interfaces.
package catalogio

import (
	"syscat/pkg/catalog/schema"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/expression"
	"syscat/pkg/primitives"
	"syscat/pkg/storage"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

// CatalogReader provides transactional reads over catalog tables.
type CatalogReader interface {
	// ScanByPredicate returns the rows visible to tx that satisfy pred,
	// projected to columns (nil for all columns).
	ScanByPredicate(
		tableOID primitives.OID,
		columns []primitives.ColumnID,
		pred expression.Expr,
		tx *transaction.TransactionContext,
	) ([]*tuple.Tuple, error)

	// IndexScan returns the rows visible to tx whose key in the index starts
	// with keys.
	IndexScan(
		tableOID, indexOID primitives.OID,
		keys []types.Field,
		tx *transaction.TransactionContext,
	) ([]*tuple.Tuple, error)
}

// CatalogWriter provides transactional writes over catalog tables.
type CatalogWriter interface {
	// InsertTuple returns false when the row violates a constraint.
	InsertTuple(tableOID primitives.OID, tup *tuple.Tuple, tx *transaction.TransactionContext) (bool, error)

	// DeleteByPredicate and DeleteByIndex return how many rows they deleted.
	DeleteByPredicate(tableOID primitives.OID, pred expression.Expr, tx *transaction.TransactionContext) (int, error)
	DeleteByIndex(tableOID, indexOID primitives.OID, keys []types.Field, tx *transaction.TransactionContext) (int, error)
}

// CatalogDDL creates the physical tables and indexes behind catalog tables.
type CatalogDDL interface {
	CreateTable(oid primitives.OID, name string, sch *schema.Schema, tx *transaction.TransactionContext) (*storage.Table, error)
	CreateIndex(tableOID primitives.OID, desc storage.IndexDescriptor) error
	Table(oid primitives.OID) (*storage.Table, bool)
	TableByName(name string) (*storage.Table, bool)
}

// CatalogAccess is everything a catalog table needs.
type CatalogAccess interface {
	CatalogReader
	CatalogWriter
	CatalogDDL
}

var _ CatalogAccess = (*storage.Engine)(nil)
