package storage

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"syscat/pkg/catalog/schema"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/logging"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
)

const DefaultBTreeDegree = 16

// Options configures an Engine.
type Options struct {
	BTreeDegree int
	Metrics     *metrics.Metrics
}

// Engine owns every table, the transaction registry and the per-transaction
// write sets needed to commit or roll back.
type Engine struct {
	id      uuid.UUID
	degree  int
	metrics *metrics.Metrics
	log     *slog.Logger

	mu     sync.RWMutex
	tables map[primitives.OID]*Table
	byName map[string]*Table

	txns      *transaction.TransactionRegistry
	txnMu     sync.Mutex
	writeSets map[txnID]*writeSet
}

// NewEngine creates an empty engine with a fresh id.
func NewEngine(opts Options) *Engine {
	degree := opts.BTreeDegree
	if degree < 2 {
		degree = DefaultBTreeDegree
	}
	return &Engine{
		id:        uuid.New(),
		degree:    degree,
		metrics:   opts.Metrics,
		log:       logging.WithComponent("storage"),
		tables:    make(map[primitives.OID]*Table),
		byName:    make(map[string]*Table),
		txns:      transaction.NewTransactionRegistry(),
		writeSets: make(map[txnID]*writeSet),
	}
}

// ID identifies this engine instance across snapshot round trips.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// checkTxn rejects nil and finished transactions.
func checkTxn(op string, txn *transaction.TransactionContext) error {
	if txn == nil {
		return dberror.InvalidTransaction(op, "storage")
	}
	if !txn.IsActive() {
		return dberror.TransactionClosed(op, int64(txn.ID))
	}
	return nil
}

// CreateTable creates an empty table. If txn aborts, the table is dropped.
func (e *Engine) CreateTable(oid primitives.OID, name string, sch *schema.Schema, txn *transaction.TransactionContext) (*Table, error) {
	if err := checkTxn("CreateTable", txn); err != nil {
		return nil, err
	}
	if !oid.IsValid() {
		return nil, errors.Newf("cannot create table %q with invalid oid", name)
	}
	if sch == nil {
		return nil, errors.Newf("cannot create table %q without a schema", name)
	}

	t, err := e.addTable(oid, name, sch)
	if err != nil {
		return nil, err
	}
	e.recordTableChange(txn.ID, oid, false)

	e.log.Debug("table created", "table", name, "oid", uint32(oid), "tx_id", int64(txn.ID))
	return t, nil
}

func (e *Engine) addTable(oid primitives.OID, name string, sch *schema.Schema) (*Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.tables[oid]; ok {
		return nil, errors.Newf("table oid %d already used by %q", oid, existing.name)
	}
	if existing, ok := e.byName[name]; ok {
		return nil, errors.Newf("table %q already exists with oid %d", name, existing.oid)
	}

	t := newTable(oid, name, sch.WithTable(oid, name), e.degree)
	e.tables[oid] = t
	e.byName[name] = t
	return t, nil
}

// DropTable removes the table when txn commits.
func (e *Engine) DropTable(oid primitives.OID, txn *transaction.TransactionContext) error {
	if err := checkTxn("DropTable", txn); err != nil {
		return err
	}
	if _, err := e.table("DropTable", oid); err != nil {
		return err
	}
	e.recordTableChange(txn.ID, oid, true)
	return nil
}

func (e *Engine) removeTable(oid primitives.OID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.tables[oid]; ok {
		delete(e.tables, oid)
		delete(e.byName, t.name)
	}
}

// CreateIndex adds an index to an empty table.
func (e *Engine) CreateIndex(tableOID primitives.OID, desc IndexDescriptor) error {
	t, err := e.table("CreateIndex", tableOID)
	if err != nil {
		return err
	}
	return t.addIndex(desc)
}

// Table looks a table up by oid.
func (e *Engine) Table(oid primitives.OID) (*Table, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tables[oid]
	return t, ok
}

// TableByName looks a table up by name.
func (e *Engine) TableByName(name string) (*Table, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.byName[name]
	return t, ok
}

// Tables lists every table ordered by oid.
func (e *Engine) Tables() []*Table {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Table, 0, len(e.tables))
	for _, t := range e.tables {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Table) int {
		return int(a.oid) - int(b.oid)
	})
	return out
}

func (e *Engine) table(op string, oid primitives.OID) (*Table, error) {
	t, ok := e.Table(oid)
	if !ok {
		return nil, dberror.TableNotFound(op, oid.String())
	}
	return t, nil
}
