package systable

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/catalogio"
	"syscat/pkg/catalog/schema"
	"syscat/pkg/dberror"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// ColumnCatalog is pg_attribute: one row per column of every table,
// catalog tables included.
type ColumnCatalog struct {
	*CatalogTable[*schema.ColumnMetadata]
}

func NewColumnCatalog(access catalogio.CatalogAccess, dbOID primitives.OID, m *metrics.Metrics) *ColumnCatalog {
	return &ColumnCatalog{CatalogTable: NewCatalogTable(access, newColumnDescriptor(), dbOID, m)}
}

// InsertColumn records one column. It returns false if the table already
// has a column with that name.
func (cc *ColumnCatalog) InsertColumn(col *schema.ColumnMetadata, txn TxContext) (bool, error) {
	return cc.Insert(col, txn)
}

// InsertColumns records every column of sch under tableOID and stops at the
// first rejected one.
func (cc *ColumnCatalog) InsertColumns(tableOID primitives.OID, sch *schema.Schema, txn TxContext) (bool, error) {
	for _, col := range sch.Columns {
		col.TableID = tableOID
		ok, err := cc.InsertColumn(&col, txn)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// DeleteColumns removes every column of a table.
func (cc *ColumnCatalog) DeleteColumns(tableOID primitives.OID, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteColumns", ColumnCatalogName)
	}
	return cc.DeleteByIndex(ColumnSkey0OID, []types.Field{types.NewIntField(int64(tableOID))}, txn)
}

// GetColumns returns a table's columns ordered by position.
func (cc *ColumnCatalog) GetColumns(tableOID primitives.OID, txn TxContext) ([]*schema.ColumnMetadata, error) {
	cols, err := cc.IndexScan(ColumnSkey0OID, []types.Field{types.NewIntField(int64(tableOID))}, txn)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(cols, func(a, b *schema.ColumnMetadata) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return cols, nil
}

// GetSchema rebuilds a table schema from its pg_attribute rows. It returns
// nil if the table has no columns recorded.
func (cc *ColumnCatalog) GetSchema(tableOID primitives.OID, tableName string, txn TxContext) (*schema.Schema, error) {
	cols, err := cc.GetColumns(tableOID, txn)
	if err != nil || len(cols) == 0 {
		return nil, err
	}
	metas := make([]schema.ColumnMetadata, len(cols))
	for i, c := range cols {
		if int(c.Position) != i {
			return nil, dberror.Corruption(ColumnCatalogName, "table %d: column %q at position %d, expected %d", tableOID, c.Name, c.Position, i)
		}
		metas[i] = *c
	}
	sch, err := schema.NewSchema(tableOID, tableName, metas)
	if err != nil {
		return nil, errors.Wrapf(err, "rebuild schema of table %d", tableOID)
	}
	return sch, nil
}
