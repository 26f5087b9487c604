package catalog

import (
	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/schema"
	"syscat/pkg/catalog/systable"
	"syscat/pkg/dberror"
	"syscat/pkg/logging"
	"syscat/pkg/primitives"
	"syscat/pkg/tables"
	"syscat/pkg/trigger"
)

// physicalName is the storage-level name of a user table. Engine table names
// are global, so the database name is part of it.
func physicalName(databaseName, tableName string) string {
	return databaseName + "." + tableName
}

// CreateDatabase records a new database and returns its oid.
func (c *Catalog) CreateDatabase(name string, txn systable.TxContext) (primitives.OID, error) {
	if txn == nil {
		return primitives.InvalidOID, dberror.InvalidTransaction("CreateDatabase", "catalog")
	}
	id, err := c.Databases.AllocateObjectID()
	if err != nil {
		return primitives.InvalidOID, err
	}
	ok, err := c.Databases.InsertDatabase(id, name, txn)
	if err != nil {
		return primitives.InvalidOID, err
	}
	if !ok {
		return primitives.InvalidOID, dberror.ObjectExists("CreateDatabase", "database", name)
	}

	logging.WithTx(int64(txn.ID)).Info("database created", "database", name, "oid", uint32(id))
	return id, nil
}

// CreateSchema records a new namespace and returns its oid.
func (c *Catalog) CreateSchema(name string, txn systable.TxContext) (primitives.OID, error) {
	if txn == nil {
		return primitives.InvalidOID, dberror.InvalidTransaction("CreateSchema", "catalog")
	}
	id, err := c.Schemas.AllocateObjectID()
	if err != nil {
		return primitives.InvalidOID, err
	}
	ok, err := c.Schemas.InsertSchema(id, name, txn)
	if err != nil {
		return primitives.InvalidOID, err
	}
	if !ok {
		return primitives.InvalidOID, dberror.ObjectExists("CreateSchema", "schema", name)
	}

	logging.WithTx(int64(txn.ID)).Info("schema created", "schema", name, "oid", uint32(id))
	return id, nil
}

// DropSchema removes a namespace. The built-in namespaces cannot be dropped,
// and neither can one that still holds tables.
func (c *Catalog) DropSchema(name string, txn systable.TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DropSchema", "catalog")
	}
	obj, err := c.Schemas.GetSchemaObject(name, txn)
	if err != nil || obj == nil {
		return false, err
	}
	if obj.OID == systable.CatalogSchemaOID || obj.OID == systable.DefaultSchemaOID {
		return false, errors.Newf("schema %s is built in", name)
	}

	dbs, err := c.Databases.All(txn)
	if err != nil {
		return false, err
	}
	for _, db := range dbs {
		objs, err := c.Tables.GetTableObjects(db.OID, txn)
		if err != nil {
			return false, err
		}
		for _, t := range objs {
			if t.SchemaOID == obj.OID {
				return false, errors.Newf("schema %s still holds table %s.%s", name, db.Name, t.Name)
			}
		}
	}
	return c.Schemas.DeleteSchema(name, txn)
}

// ResolveTable finds a table by database and table name. It returns nil when
// either does not exist.
func (c *Catalog) ResolveTable(databaseName, tableName string, txn systable.TxContext) (*systable.TableObject, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("ResolveTable", "catalog")
	}
	db, err := c.Databases.GetDatabaseObjectByName(databaseName, txn)
	if err != nil || db == nil {
		return nil, err
	}
	return c.Tables.GetTableObject(db.OID, tableName, txn)
}

// GetTableObject is ResolveTable under the name the rest of the catalog uses.
func (c *Catalog) GetTableObject(databaseName, tableName string, txn systable.TxContext) (*systable.TableObject, error) {
	return c.ResolveTable(databaseName, tableName, txn)
}

// CreateTable records a table and its columns, creates its storage and
// registers its runtime object. A primary key in sch gets a unique index.
func (c *Catalog) CreateTable(databaseName, schemaName, tableName string, sch *schema.Schema, txn systable.TxContext) (*tables.Table, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("CreateTable", "catalog")
	}
	if sch == nil {
		return nil, errors.Newf("table %s has no schema", tableName)
	}
	log := logging.WithTx(int64(txn.ID)).With("database", databaseName, "table", tableName)

	db, err := c.Databases.GetDatabaseObjectByName(databaseName, txn)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, dberror.ObjectNotFound("CreateTable", "database", databaseName)
	}
	ns, err := c.Schemas.GetSchemaObject(schemaName, txn)
	if err != nil {
		return nil, err
	}
	if ns == nil {
		return nil, dberror.ObjectNotFound("CreateTable", "schema", schemaName)
	}

	id, err := c.Tables.AllocateObjectID()
	if err != nil {
		return nil, err
	}
	obj := &systable.TableObject{OID: id, Name: tableName, SchemaOID: ns.OID, DatabaseOID: db.OID}
	ok, err := c.Tables.InsertTable(obj, txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dberror.ObjectExists("CreateTable", "table", physicalName(databaseName, tableName))
	}

	stored := sch.WithTable(id, tableName)
	if _, err := c.engine.CreateTable(id, physicalName(databaseName, tableName), stored, txn); err != nil {
		return nil, errors.Wrapf(err, "create storage for %s", tableName)
	}
	ok, err = c.Columns.InsertColumns(id, stored, txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf("columns of %s were rejected", tableName)
	}
	if len(stored.PrimaryKey) > 0 {
		if err := c.createPrimaryKey(obj, stored, txn); err != nil {
			return nil, err
		}
	}

	t := tables.NewTable(id, db.OID, ns.OID, tableName, stored)
	if err := c.runtime.AddTable(t); err != nil {
		return nil, err
	}
	c.touch(txn, id)

	log.Info("table created", "oid", uint32(id), "columns", stored.NumFields())
	return t, nil
}

func (c *Catalog) createPrimaryKey(obj *systable.TableObject, sch *schema.Schema, txn systable.TxContext) error {
	ixOID, err := c.Indexes.AllocateObjectID()
	if err != nil {
		return err
	}
	ix := systable.NewIndexObject(obj.OID, storageIndex(ixOID, obj.Name+"_pkey", sch.PrimaryKey))
	if err := c.engine.CreateIndex(obj.OID, ix.Descriptor()); err != nil {
		return errors.Wrapf(err, "create primary key of %s", obj.Name)
	}
	ok, err := c.Indexes.InsertIndex(ix, txn)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Newf("index %s was rejected", ix.Name)
	}
	return nil
}

// DropTable removes a table, its columns, indexes and triggers. It returns
// false if the table does not exist.
func (c *Catalog) DropTable(databaseName, tableName string, txn systable.TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DropTable", "catalog")
	}
	obj, err := c.ResolveTable(databaseName, tableName, txn)
	if err != nil || obj == nil {
		return false, err
	}
	if obj.SchemaOID == systable.CatalogSchemaOID {
		return false, errors.Newf("%s is a catalog table", tableName)
	}

	if _, err := c.Triggers.DeleteTriggersByTable(obj.OID, txn); err != nil {
		return false, err
	}
	if _, err := c.Indexes.DeleteIndexes(obj.OID, txn); err != nil {
		return false, err
	}
	if _, err := c.Columns.DeleteColumns(obj.OID, txn); err != nil {
		return false, err
	}
	ok, err := c.Tables.DeleteTable(obj.OID, txn)
	if err != nil || !ok {
		return ok, err
	}
	if err := c.engine.DropTable(obj.OID, txn); err != nil {
		return false, errors.Wrapf(err, "drop storage of %s", tableName)
	}
	if err := c.OnMetadataChanged(obj.OID, systable.TableDropped, txn); err != nil {
		return false, err
	}

	logging.WithTx(int64(txn.ID)).Info("table dropped", "database", databaseName, "table", tableName, "oid", uint32(obj.OID))
	return true, nil
}

// CreateTrigger records def on the named table and returns the trigger's oid.
// ok is false when the table already has a trigger with that name. When
// catalog.refresh_on_insert is set the table's trigger cache is refreshed.
func (c *Catalog) CreateTrigger(databaseName, tableName string, def *trigger.Trigger, txn systable.TxContext) (primitives.OID, bool, error) {
	if txn == nil {
		return primitives.InvalidOID, false, dberror.InvalidTransaction("CreateTrigger", "catalog")
	}
	if def == nil {
		return primitives.InvalidOID, false, errors.New("nil trigger definition")
	}
	obj, err := c.ResolveTable(databaseName, tableName, txn)
	if err != nil {
		return primitives.InvalidOID, false, err
	}
	if obj == nil {
		return primitives.InvalidOID, false, dberror.TableNotFound("CreateTrigger", physicalName(databaseName, tableName))
	}

	row := *def
	row.TableOID = obj.OID
	id, ok, err := c.Triggers.InsertTrigger(&row, txn)
	if err != nil || !ok {
		return id, ok, err
	}

	if c.cfg.Catalog.RefreshOnInsert {
		if err := c.OnMetadataChanged(obj.OID, systable.TriggerCreated, txn); err != nil {
			return primitives.InvalidOID, false, errors.Wrapf(err, "refresh triggers of %s", tableName)
		}
	}

	logging.WithTx(int64(txn.ID)).Info("trigger created", "trigger", row.Name, "table", tableName, "oid", uint32(id))
	return id, true, nil
}

// DropTrigger removes a trigger and refreshes its table's trigger cache.
func (c *Catalog) DropTrigger(databaseName, tableName, triggerName string, txn systable.TxContext) error {
	return c.Triggers.DropTrigger(databaseName, tableName, triggerName, txn)
}

// OnMetadataChanged remembers that txn touched the table and passes the
// change on to the runtime tables.
func (c *Catalog) OnMetadataChanged(tableOID primitives.OID, kind systable.ChangeKind, txn systable.TxContext) error {
	c.touch(txn, tableOID)
	return c.runtime.OnMetadataChanged(tableOID, kind, txn)
}
