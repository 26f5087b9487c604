package systable

import (
	"cmp"
	"fmt"
	"slices"

	"syscat/pkg/catalog/catalogio"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/storage"
	"syscat/pkg/types"
)

// IndexObject is a snapshot of one pg_index row.
type IndexObject struct {
	OID        primitives.OID
	Name       string
	TableOID   primitives.OID
	Columns    []primitives.ColumnID
	Constraint primitives.IndexConstraint
	Txn        transaction.TransactionID
}

// NewIndexObject describes an index of tableOID as the storage engine sees it.
func NewIndexObject(tableOID primitives.OID, desc storage.IndexDescriptor) *IndexObject {
	return &IndexObject{
		OID:        desc.OID,
		Name:       desc.Name,
		TableOID:   tableOID,
		Columns:    slices.Clone(desc.Columns),
		Constraint: desc.Constraint,
	}
}

// Descriptor converts the row back into a storage index descriptor.
func (ix *IndexObject) Descriptor() storage.IndexDescriptor {
	return storage.IndexDescriptor{
		OID:        ix.OID,
		Name:       ix.Name,
		Columns:    slices.Clone(ix.Columns),
		Constraint: ix.Constraint,
		Kind:       primitives.BTreeIndex,
	}
}

func (ix *IndexObject) String() string {
	return fmt.Sprintf("index %s (oid %d) on %d (%s) %s", ix.Name, ix.OID, ix.TableOID, formatKeyColumns(ix.Columns), ix.Constraint)
}

// IndexCatalog is pg_index.
type IndexCatalog struct {
	*CatalogTable[*IndexObject]
}

func NewIndexCatalog(access catalogio.CatalogAccess, dbOID primitives.OID, m *metrics.Metrics) *IndexCatalog {
	return &IndexCatalog{CatalogTable: NewCatalogTable(access, newIndexDescriptor(), dbOID, m)}
}

// InsertIndex records an index. It returns false if the oid, or the name on
// that table, is taken.
func (ic *IndexCatalog) InsertIndex(obj *IndexObject, txn TxContext) (bool, error) {
	return ic.Insert(obj, txn)
}

// DeleteIndex removes the index with the given oid.
func (ic *IndexCatalog) DeleteIndex(id primitives.OID, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteIndex", IndexCatalogName)
	}
	return ic.DeleteByIndex(IndexPkeyOID, []types.Field{types.NewIntField(int64(id))}, txn)
}

// DeleteIndexes removes every index of a table.
func (ic *IndexCatalog) DeleteIndexes(tableOID primitives.OID, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteIndexes", IndexCatalogName)
	}
	return ic.DeleteByIndex(IndexSkey1OID, []types.Field{types.NewIntField(int64(tableOID))}, txn)
}

// GetIndexes returns a table's indexes ordered by oid.
func (ic *IndexCatalog) GetIndexes(tableOID primitives.OID, txn TxContext) ([]*IndexObject, error) {
	out, err := ic.IndexScan(IndexSkey1OID, []types.Field{types.NewIntField(int64(tableOID))}, txn)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *IndexObject) int {
		return cmp.Compare(a.OID, b.OID)
	})
	return out, nil
}
