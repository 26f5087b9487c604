package systable

import (
	"fmt"

	"syscat/pkg/catalog/catalogio"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// DatabaseObject is a snapshot of one pg_database row.
type DatabaseObject struct {
	OID  primitives.OID
	Name string
	Txn  transaction.TransactionID
}

func (d *DatabaseObject) String() string {
	return fmt.Sprintf("database %s (oid %d)", d.Name, d.OID)
}

// DatabaseCatalog is pg_database. Lookups are cached per transaction: asking
// twice in one transaction returns the same object.
type DatabaseCatalog struct {
	*CatalogTable[*DatabaseObject]
}

func NewDatabaseCatalog(access catalogio.CatalogAccess, dbOID primitives.OID, m *metrics.Metrics) *DatabaseCatalog {
	return &DatabaseCatalog{CatalogTable: NewCatalogTable(access, newDatabaseDescriptor(), dbOID, m)}
}

// databaseCacheKey keys the per-transaction cache of one DatabaseCatalog.
type databaseCacheKey struct {
	owner *DatabaseCatalog
}

type databaseCache struct {
	byOID  map[primitives.OID]*DatabaseObject
	byName map[string]*DatabaseObject
}

func (dc *DatabaseCatalog) cache(txn TxContext) *databaseCache {
	key := databaseCacheKey{owner: dc}
	if v, ok := txn.Value(key); ok {
		return v.(*databaseCache)
	}
	c := &databaseCache{
		byOID:  make(map[primitives.OID]*DatabaseObject),
		byName: make(map[string]*DatabaseObject),
	}
	txn.SetValue(key, c)
	return c
}

// add caches obj. It fails if a different object is already cached under
// the same oid or name, which would mean the catalog returned two rows for
// one database.
func (c *databaseCache) add(obj *DatabaseObject) error {
	if prev, ok := c.byOID[obj.OID]; ok && prev != obj {
		return dberror.Corruption(DatabaseCatalogName, "database oid %d cached twice", obj.OID)
	}
	if prev, ok := c.byName[obj.Name]; ok && prev != obj {
		return dberror.Corruption(DatabaseCatalogName, "database %q cached twice", obj.Name)
	}
	c.byOID[obj.OID] = obj
	c.byName[obj.Name] = obj
	return nil
}

func (c *databaseCache) evict(id primitives.OID) {
	if obj, ok := c.byOID[id]; ok {
		delete(c.byOID, id)
		delete(c.byName, obj.Name)
	}
}

// InsertDatabase records a database. It returns false if the oid or name is taken.
func (dc *DatabaseCatalog) InsertDatabase(id primitives.OID, name string, txn TxContext) (bool, error) {
	return dc.Insert(&DatabaseObject{OID: id, Name: name}, txn)
}

// DeleteDatabase removes a database row and evicts it from txn's cache.
func (dc *DatabaseCatalog) DeleteDatabase(id primitives.OID, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteDatabase", DatabaseCatalogName)
	}
	dc.cache(txn).evict(id)
	return dc.DeleteByIndex(DatabasePkeyOID, []types.Field{types.NewIntField(int64(id))}, txn)
}

// GetDatabaseObject returns the database with the given oid, or nil.
func (dc *DatabaseCatalog) GetDatabaseObject(id primitives.OID, txn TxContext) (*DatabaseObject, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetDatabaseObject", DatabaseCatalogName)
	}
	c := dc.cache(txn)
	if obj, ok := c.byOID[id]; ok {
		return obj, nil
	}
	obj, err := dc.LookupUnique(DatabasePkeyOID, []types.Field{types.NewIntField(int64(id))}, txn)
	if err != nil || obj == nil {
		return nil, err
	}
	if err := c.add(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// GetDatabaseObjectByName returns the database called name, or nil.
func (dc *DatabaseCatalog) GetDatabaseObjectByName(name string, txn TxContext) (*DatabaseObject, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetDatabaseObjectByName", DatabaseCatalogName)
	}
	c := dc.cache(txn)
	if obj, ok := c.byName[name]; ok {
		return obj, nil
	}
	obj, err := dc.LookupUnique(DatabaseSkey0OID, []types.Field{types.NewVarcharField(name)}, txn)
	if err != nil || obj == nil {
		return nil, err
	}
	if err := c.add(obj); err != nil {
		return nil, err
	}
	return obj, nil
}
