// Package tables keeps the runtime objects of user tables, including each
// table's cached trigger list, and keeps those caches in step with the
// trigger catalog.
package tables

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/systable"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/logging"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
)

type tableKey struct {
	db   primitives.OID
	name string
}

// TableManager indexes live tables by oid and by (database, name). It is a
// systable.MetadataListener: trigger changes refresh the affected table's
// cache and a dropped table is unregistered.
type TableManager struct {
	nameToTable map[tableKey]*Table
	idToTable   map[primitives.OID]*Table
	mutex       sync.RWMutex

	source  TriggerSource
	metrics *metrics.Metrics
	log     *slog.Logger
}

var _ systable.MetadataListener = (*TableManager)(nil)

// NewTableManager creates an empty manager reading triggers from source.
func NewTableManager(source TriggerSource, m *metrics.Metrics) *TableManager {
	return &TableManager{
		nameToTable: make(map[tableKey]*Table),
		idToTable:   make(map[primitives.OID]*Table),
		source:      source,
		metrics:     m,
		log:         logging.WithComponent("tables"),
	}
}

// AddTable registers t, replacing any table with the same oid or the same
// name in the same database.
func (tm *TableManager) AddTable(t *Table) error {
	if t == nil {
		return errors.New("table cannot be nil")
	}
	if t.Name == "" {
		return errors.New("table name cannot be empty")
	}
	if !t.OID.IsValid() {
		return errors.Newf("table %s has no oid", t.Name)
	}

	t.attach(tm.source)
	key := tableKey{t.DatabaseOID, t.Name}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if old, exists := tm.nameToTable[key]; exists {
		delete(tm.idToTable, old.OID)
	}
	if old, exists := tm.idToTable[t.OID]; exists {
		delete(tm.nameToTable, tableKey{old.DatabaseOID, old.Name})
	}

	tm.nameToTable[key] = t
	tm.idToTable[t.OID] = t
	return nil
}

// RemoveTable unregisters the table with the given oid, if any.
func (tm *TableManager) RemoveTable(oid primitives.OID) bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	t, exists := tm.idToTable[oid]
	if !exists {
		return false
	}
	delete(tm.idToTable, oid)
	delete(tm.nameToTable, tableKey{t.DatabaseOID, t.Name})
	return true
}

// GetTable returns the table with the given oid.
func (tm *TableManager) GetTable(oid primitives.OID) (*Table, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	t, ok := tm.idToTable[oid]
	return t, ok
}

// GetTableByName returns the table called name in the database.
func (tm *TableManager) GetTableByName(databaseOID primitives.OID, name string) (*Table, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	t, ok := tm.nameToTable[tableKey{databaseOID, name}]
	return t, ok
}

// Tables lists every registered table ordered by oid.
func (tm *TableManager) Tables() []*Table {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	out := make([]*Table, 0, len(tm.idToTable))
	for _, t := range tm.idToTable {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Table) int { return cmp.Compare(a.OID, b.OID) })
	return out
}

func (tm *TableManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.nameToTable = make(map[tableKey]*Table)
	tm.idToTable = make(map[primitives.OID]*Table)
}

// RefreshAll rereads the trigger list of every registered table.
func (tm *TableManager) RefreshAll(txn *transaction.TransactionContext, cause string) error {
	for _, t := range tm.Tables() {
		if err := t.RefreshTriggerCache(txn); err != nil {
			return err
		}
		tm.metrics.CacheRefreshed(cause)
	}
	return nil
}

// OnMetadataChanged keeps the runtime tables in step with the catalog.
// Changes to tables that are not registered are ignored.
func (tm *TableManager) OnMetadataChanged(tableOID primitives.OID, kind systable.ChangeKind, txn *transaction.TransactionContext) error {
	switch kind {
	case systable.TriggerCreated, systable.TriggerDropped:
		t, ok := tm.GetTable(tableOID)
		if !ok {
			tm.log.Debug("change for unregistered table", "table_oid", uint32(tableOID), "kind", kind.String())
			return nil
		}
		if err := t.RefreshTriggerCache(txn); err != nil {
			return err
		}
		tm.metrics.CacheRefreshed(kind.String())
		tm.log.Debug("trigger cache refreshed", "table", t.Name, "kind", kind.String(), "triggers", t.Triggers().Len())
		return nil

	case systable.TableDropped:
		tm.RemoveTable(tableOID)
		return nil

	default:
		return errors.Newf("unknown metadata change %s", kind)
	}
}

// ValidateIntegrity performs basic integrity checks on the two indexes
func (tm *TableManager) ValidateIntegrity() error {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	if len(tm.nameToTable) != len(tm.idToTable) {
		return errors.New("table manager integrity violation: map size mismatch")
	}

	for key, table := range tm.nameToTable {
		if t, exists := tm.idToTable[table.OID]; !exists {
			return errors.Newf("table manager integrity violation: table %s missing from oid map", key.name)
		} else if t != table {
			return errors.Newf("table manager integrity violation: table %s reference mismatch", key.name)
		}
	}

	for oid, table := range tm.idToTable {
		if other, exists := tm.nameToTable[tableKey{table.DatabaseOID, table.Name}]; !exists {
			return errors.Newf("table manager integrity violation: table oid %d missing from name map", oid)
		} else if other != table {
			return errors.Newf("table manager integrity violation: table oid %d reference mismatch", oid)
		}
	}

	return nil
}

// GetAllTableNames returns the names of all tables of a database
func (tm *TableManager) GetAllTableNames(databaseOID primitives.OID) []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.nameToTable))
	for key := range tm.nameToTable {
		if key.db == databaseOID {
			names = append(names, key.name)
		}
	}
	slices.Sort(names)
	return names
}
