package systable

import (
	"fmt"
	"slices"
	"strings"

	"syscat/pkg/catalog/catalogio"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/expression"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// Well-known namespaces.
const (
	CatalogSchemaOID  primitives.OID = 11
	CatalogSchemaName                = "pg_catalog"
	DefaultSchemaOID  primitives.OID = 2200
	DefaultSchemaName                = "public"
)

// SchemaCatalogObject is a snapshot of one pg_namespace row.
type SchemaCatalogObject struct {
	OID  primitives.OID
	Name string
	Txn  transaction.TransactionID
}

func (s *SchemaCatalogObject) String() string {
	return fmt.Sprintf("schema %s (oid %d)", s.Name, s.OID)
}

// SchemaCatalog is pg_namespace. It keeps no object cache.
type SchemaCatalog struct {
	*CatalogTable[*SchemaCatalogObject]
}

func NewSchemaCatalog(access catalogio.CatalogAccess, dbOID primitives.OID, m *metrics.Metrics) *SchemaCatalog {
	return &SchemaCatalog{CatalogTable: NewCatalogTable(access, newSchemaDescriptor(), dbOID, m)}
}

// InsertSchema records a namespace. It returns false if the oid or the name
// is already taken.
func (sc *SchemaCatalog) InsertSchema(id primitives.OID, name string, txn TxContext) (bool, error) {
	return sc.InsertRow([]types.Field{
		types.NewIntField(int64(id)),
		types.NewVarcharField(name),
	}, txn)
}

// DeleteSchema removes the namespace called name and reports whether it existed.
func (sc *SchemaCatalog) DeleteSchema(name string, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteSchema", SchemaCatalogName)
	}
	return sc.DeleteByPredicate(expression.ColumnEquals(schemaColName, types.NewVarcharField(name)), txn)
}

// GetSchemaObject returns the namespace called name, or nil if there is none.
func (sc *SchemaCatalog) GetSchemaObject(name string, txn TxContext) (*SchemaCatalogObject, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetSchemaObject", SchemaCatalogName)
	}
	return sc.LookupUnique(SchemaSkey0OID, []types.Field{types.NewVarcharField(name)}, txn)
}

// GetSchemaObjectByOID returns the namespace with the given oid, or nil.
func (sc *SchemaCatalog) GetSchemaObjectByOID(id primitives.OID, txn TxContext) (*SchemaCatalogObject, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetSchemaObjectByOID", SchemaCatalogName)
	}
	return sc.LookupUnique(SchemaPkeyOID, []types.Field{types.NewIntField(int64(id))}, txn)
}

// GetSchemaObjects lists every namespace in name order.
func (sc *SchemaCatalog) GetSchemaObjects(txn TxContext) ([]*SchemaCatalogObject, error) {
	all, err := sc.All(txn)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b *SchemaCatalogObject) int {
		return strings.Compare(a.Name, b.Name)
	})
	return all, nil
}
