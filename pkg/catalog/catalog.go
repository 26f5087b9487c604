// Package catalog owns the process-wide system catalog: the storage engine,
// the six catalog tables, the runtime table directory and the DDL operations
// that keep all of them consistent.
package catalog

import (
	"log/slog"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/systable"
	"syscat/pkg/config"
	"syscat/pkg/dberror"
	"syscat/pkg/logging"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/storage"
	"syscat/pkg/tables"
)

// The database that holds the catalog tables themselves.
const (
	CatalogDatabaseOID  primitives.OID = 1
	CatalogDatabaseName                = "catalog"
)

// Catalog ties the catalog tables to one storage engine.
//
// It is the TableResolver and the MetadataListener of pg_trigger: trigger
// changes reach the TableManager through it, and it remembers which tables a
// transaction touched so Abort can put their caches back.
type Catalog struct {
	cfg     config.Config
	engine  *storage.Engine
	metrics *metrics.Metrics
	log     *slog.Logger

	Databases *systable.DatabaseCatalog
	Schemas   *systable.SchemaCatalog
	Tables    *systable.TableCatalog
	Columns   *systable.ColumnCatalog
	Indexes   *systable.IndexCatalog
	Triggers  *systable.TriggerCatalog

	runtime *tables.TableManager
	// resyncMu serialises post-commit and post-abort resyncs, so the last
	// one to run has read every commit before it.
	resyncMu sync.Mutex
}

var (
	_ systable.TableResolver    = (*Catalog)(nil)
	_ systable.MetadataListener = (*Catalog)(nil)
)

// Option customises Open.
type Option func(*Catalog)

// WithMetrics records catalog and storage metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Catalog) {
		c.metrics = m
	}
}

// WithEngine runs the catalog on an existing engine instead of creating or
// loading one.
func WithEngine(e *storage.Engine) Option {
	return func(c *Catalog) {
		c.engine = e
	}
}

// Open builds a catalog instance. The engine is loaded from
// cfg.Storage.SnapshotPath when that file exists, otherwise it starts empty.
// The catalog tables are then bootstrapped in one transaction.
func Open(cfg config.Config, opts ...Option) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	c := &Catalog{cfg: cfg, log: logging.WithComponent("catalog")}
	for _, opt := range opts {
		opt(c)
	}

	if c.engine == nil {
		engine, err := openEngine(cfg.Storage, c.metrics)
		if err != nil {
			return nil, err
		}
		c.engine = engine
	}

	c.Databases = systable.NewDatabaseCatalog(c.engine, CatalogDatabaseOID, c.metrics)
	c.Schemas = systable.NewSchemaCatalog(c.engine, CatalogDatabaseOID, c.metrics)
	c.Tables = systable.NewTableCatalog(c.engine, CatalogDatabaseOID, c.metrics)
	c.Columns = systable.NewColumnCatalog(c.engine, CatalogDatabaseOID, c.metrics)
	c.Indexes = systable.NewIndexCatalog(c.engine, CatalogDatabaseOID, c.metrics)
	c.Triggers = systable.NewTriggerCatalog(c.engine, CatalogDatabaseOID, c, c, c.metrics)
	c.runtime = tables.NewTableManager(c.Triggers, c.metrics)

	if err := c.bootstrap(); err != nil {
		return nil, err
	}
	return c, nil
}

func openEngine(cfg config.StorageConfig, m *metrics.Metrics) (*storage.Engine, error) {
	opts := storage.Options{BTreeDegree: cfg.BTreeDegree, Metrics: m}
	if cfg.SnapshotPath == "" {
		return storage.NewEngine(opts), nil
	}

	if _, err := os.Stat(cfg.SnapshotPath); errors.Is(err, os.ErrNotExist) {
		return storage.NewEngine(opts), nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "stat snapshot %s", cfg.SnapshotPath)
	}

	engine, _, err := storage.LoadFile(cfg.SnapshotPath, opts)
	return engine, err
}

// systemTables lists the catalog tables in bootstrap order.
func (c *Catalog) systemTables() []systable.SystemTable {
	return []systable.SystemTable{
		c.Databases,
		c.Schemas,
		c.Tables,
		c.Columns,
		c.Indexes,
		c.Triggers,
	}
}

func (c *Catalog) bootstrap() error {
	txn := c.engine.Begin()

	err := func() error {
		for _, st := range c.systemTables() {
			if err := st.Bootstrap(txn); err != nil {
				return err
			}
		}
		if err := c.seed(txn); err != nil {
			return err
		}
		return c.loadTables(txn)
	}()
	if err != nil {
		_ = c.engine.Abort(txn)
		return errors.Wrap(err, "bootstrap catalog")
	}

	if err := c.engine.Commit(txn); err != nil {
		return errors.Wrap(err, "commit catalog bootstrap")
	}

	c.log.Info("catalog ready",
		"engine_id", c.engine.ID().String(),
		"tables", len(c.runtime.Tables()))
	return nil
}

// seed writes the rows describing the catalog itself. Rows that are already
// there from an earlier run are left alone.
func (c *Catalog) seed(txn systable.TxContext) error {
	db, err := c.Databases.GetDatabaseObject(CatalogDatabaseOID, txn)
	if err != nil {
		return err
	}
	if db == nil {
		if err := mustInsert(systable.DatabaseCatalogName, CatalogDatabaseName)(c.Databases.InsertDatabase(CatalogDatabaseOID, CatalogDatabaseName, txn)); err != nil {
			return err
		}
	}

	for _, s := range []struct {
		oid  primitives.OID
		name string
	}{
		{systable.CatalogSchemaOID, systable.CatalogSchemaName},
		{systable.DefaultSchemaOID, systable.DefaultSchemaName},
	} {
		existing, err := c.Schemas.GetSchemaObjectByOID(s.oid, txn)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := mustInsert(systable.SchemaCatalogName, s.name)(c.Schemas.InsertSchema(s.oid, s.name, txn)); err != nil {
			return err
		}
	}

	for _, st := range c.systemTables() {
		if err := c.describeSystemTable(st, txn); err != nil {
			return err
		}
	}
	return nil
}

// describeSystemTable records a catalog table in pg_table, pg_attribute and
// pg_index.
func (c *Catalog) describeSystemTable(st systable.SystemTable, txn systable.TxContext) error {
	existing, err := c.Tables.GetTableObjectByOID(st.OID(), txn)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Name != st.Name() {
			return dberror.CatalogBootstrap(st.Name(), "pg_table names oid "+st.OID().String()+" "+existing.Name)
		}
		return nil
	}

	row := &systable.TableObject{
		OID:         st.OID(),
		Name:        st.Name(),
		SchemaOID:   systable.CatalogSchemaOID,
		DatabaseOID: CatalogDatabaseOID,
	}
	if err := mustInsert(systable.TableCatalogName, st.Name())(c.Tables.InsertTable(row, txn)); err != nil {
		return err
	}
	if err := mustInsert(systable.ColumnCatalogName, st.Name())(c.Columns.InsertColumns(st.OID(), st.Schema(), txn)); err != nil {
		return err
	}
	for _, ix := range st.Indexes() {
		if err := mustInsert(systable.IndexCatalogName, ix.Name)(c.Indexes.InsertIndex(systable.NewIndexObject(st.OID(), ix), txn)); err != nil {
			return err
		}
	}
	return nil
}

// mustInsert turns a rejected bootstrap insert into a bootstrap error.
func mustInsert(catalog, what string) func(bool, error) error {
	return func(ok bool, err error) error {
		if err != nil {
			return err
		}
		if !ok {
			return dberror.CatalogBootstrap(catalog, "cannot record "+what)
		}
		return nil
	}
}

// loadTables registers a runtime table for every user table in pg_table and
// fills its trigger cache.
func (c *Catalog) loadTables(txn systable.TxContext) error {
	dbs, err := c.Databases.All(txn)
	if err != nil {
		return err
	}
	for _, db := range dbs {
		objs, err := c.Tables.GetTableObjects(db.OID, txn)
		if err != nil {
			return err
		}
		for _, obj := range objs {
			if obj.SchemaOID == systable.CatalogSchemaOID {
				continue
			}
			if _, err := c.register(obj, txn); err != nil {
				return err
			}
		}
	}
	return c.runtime.RefreshAll(txn, "load")
}

// register rebuilds the runtime object of a pg_table row.
func (c *Catalog) register(obj *systable.TableObject, txn systable.TxContext) (*tables.Table, error) {
	if _, ok := c.engine.Table(obj.OID); !ok {
		return nil, dberror.Corruption("catalog", "table %s (oid %d) has no storage", obj.Name, obj.OID)
	}
	sch, err := c.Columns.GetSchema(obj.OID, obj.Name, txn)
	if err != nil {
		return nil, err
	}
	if sch == nil {
		return nil, dberror.Corruption("catalog", "table %s (oid %d) has no columns", obj.Name, obj.OID)
	}

	t := tables.NewTable(obj.OID, obj.DatabaseOID, obj.SchemaOID, obj.Name, sch)
	if err := c.runtime.AddTable(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Engine returns the storage engine behind the catalog.
func (c *Catalog) Engine() *storage.Engine {
	return c.engine
}

// Config returns the configuration the catalog was opened with.
func (c *Catalog) Config() config.Config {
	return c.cfg
}

// Runtime returns the directory of live user tables.
func (c *Catalog) Runtime() *tables.TableManager {
	return c.runtime
}

// SaveSnapshot writes the committed state to cfg.Storage.SnapshotPath.
func (c *Catalog) SaveSnapshot() (storage.SnapshotInfo, error) {
	if c.cfg.Storage.SnapshotPath == "" {
		return storage.SnapshotInfo{}, errors.New("no snapshot path configured")
	}
	return c.engine.SaveFile(c.cfg.Storage.SnapshotPath)
}

// Close saves a snapshot when a path is configured and drops the runtime
// tables. Transactions still open are not part of the snapshot.
func (c *Catalog) Close() error {
	if n := c.engine.ActiveTransactions(); n > 0 {
		c.log.Warn("closing catalog with open transactions", "active", n)
	}

	var err error
	if c.cfg.Storage.SnapshotPath != "" {
		_, err = c.SaveSnapshot()
	}
	c.runtime.Clear()
	return err
}
