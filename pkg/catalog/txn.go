package catalog

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/systable"
	"syscat/pkg/primitives"
	"syscat/pkg/storage"
)

// touchedKey stores a *touchedTables in a transaction's values.
type touchedKey struct{ owner *Catalog }

// touchedTables lists the tables whose runtime state a transaction changed.
type touchedTables struct {
	mu   sync.Mutex
	oids []primitives.OID
}

func (c *Catalog) touch(txn systable.TxContext, tableOID primitives.OID) {
	if txn == nil {
		return
	}
	key := touchedKey{c}
	v, ok := txn.Value(key)
	if !ok {
		v = &touchedTables{}
		txn.SetValue(key, v)
	}
	set := v.(*touchedTables)

	set.mu.Lock()
	defer set.mu.Unlock()
	if !slices.Contains(set.oids, tableOID) {
		set.oids = append(set.oids, tableOID)
	}
}

func (c *Catalog) touched(txn systable.TxContext) []primitives.OID {
	v, ok := txn.Value(touchedKey{c})
	if !ok {
		return nil
	}
	set := v.(*touchedTables)
	set.mu.Lock()
	defer set.mu.Unlock()
	return slices.Clone(set.oids)
}

// Begin starts a catalog transaction.
func (c *Catalog) Begin() systable.TxContext {
	return c.engine.Begin()
}

// Commit makes txn's catalog changes visible, then resyncs every table txn
// touched against the committed catalog.
func (c *Catalog) Commit(txn systable.TxContext) error {
	if txn == nil {
		return c.engine.Commit(txn)
	}
	touched := c.touched(txn)
	if err := c.engine.Commit(txn); err != nil {
		return err
	}
	if len(touched) == 0 {
		return nil
	}
	return c.resync(touched, "commit")
}

// Abort rolls txn back and resynchronises the runtime state of every table
// it touched. Created tables are unregistered, dropped ones come back and
// trigger caches are reread from the committed catalog.
func (c *Catalog) Abort(txn systable.TxContext) error {
	if txn == nil {
		return c.engine.Abort(txn)
	}
	touched := c.touched(txn)
	if err := c.engine.Abort(txn); err != nil {
		return err
	}
	if len(touched) == 0 {
		return nil
	}
	return c.resync(touched, "abort")
}

// resync brings the runtime tables in oids back in line with the committed
// catalog, using a transaction of its own.
func (c *Catalog) resync(oids []primitives.OID, cause string) error {
	c.resyncMu.Lock()
	defer c.resyncMu.Unlock()

	txn := c.engine.Begin()
	var errs error
	for _, id := range oids {
		errs = errors.CombineErrors(errs, c.resyncTable(id, cause, txn))
	}
	if err := c.engine.Commit(txn); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	errs = errors.CombineErrors(errs, c.runtime.ValidateIntegrity())
	if errs != nil {
		c.log.Error("runtime tables out of sync", "after", cause, "tables", len(oids), "error", errs)
	}
	return errs
}

func (c *Catalog) resyncTable(id primitives.OID, cause string, txn systable.TxContext) error {
	obj, err := c.Tables.GetTableObjectByOID(id, txn)
	if err != nil {
		return err
	}
	if obj == nil {
		c.runtime.RemoveTable(id)
		return nil
	}

	t, ok := c.runtime.GetTable(id)
	if !ok {
		if t, err = c.register(obj, txn); err != nil {
			return err
		}
	}
	if err := t.RefreshTriggerCache(txn); err != nil {
		return err
	}
	c.metrics.CacheRefreshed(cause)
	return nil
}

func storageIndex(id primitives.OID, name string, columns []primitives.ColumnID) storage.IndexDescriptor {
	return storage.IndexDescriptor{
		OID:        id,
		Name:       name,
		Columns:    slices.Clone(columns),
		Constraint: primitives.ConstraintPrimaryKey,
		Kind:       primitives.BTreeIndex,
	}
}
