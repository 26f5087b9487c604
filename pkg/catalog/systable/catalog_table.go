package systable

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/catalogio"
	"syscat/pkg/catalog/oid"
	"syscat/pkg/catalog/schema"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/dberror"
	"syscat/pkg/expression"
	"syscat/pkg/logging"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/storage"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

type TxContext = *transaction.TransactionContext

// SystemTable is the part of a catalog table that bootstrap needs, whatever
// its row type.
type SystemTable interface {
	Name() string
	OID() primitives.OID
	Schema() *schema.Schema
	Indexes() []storage.IndexDescriptor
	Bootstrap(txn TxContext) error
}

var _ SystemTable = (*CatalogTable[*SchemaCatalogObject])(nil)

// CatalogTable is the generic catalog table: one physical table described by
// a Descriptor, with typed CRUD on top of catalogio.CatalogAccess.
//
// Schema and indexes never change after Bootstrap. The oid allocator is the
// only mutable state and is safe for concurrent use.
type CatalogTable[T any] struct {
	access  catalogio.CatalogAccess
	desc    *Descriptor[T]
	dbOID   primitives.OID
	oids    *oid.Allocator
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewCatalogTable wires desc to the storage behind access. dbOID is the
// database that owns the table.
func NewCatalogTable[T any](access catalogio.CatalogAccess, desc *Descriptor[T], dbOID primitives.OID, m *metrics.Metrics) *CatalogTable[T] {
	return &CatalogTable[T]{
		access:  access,
		desc:    desc,
		dbOID:   dbOID,
		oids:    oid.NewAllocator(),
		metrics: m,
		log:     logging.WithCatalog(desc.name),
	}
}

func (ct *CatalogTable[T]) Name() string {
	return ct.desc.name
}

func (ct *CatalogTable[T]) OID() primitives.OID {
	return ct.desc.oid
}

func (ct *CatalogTable[T]) DatabaseOID() primitives.OID {
	return ct.dbOID
}

func (ct *CatalogTable[T]) Schema() *schema.Schema {
	return ct.desc.Schema()
}

func (ct *CatalogTable[T]) Indexes() []storage.IndexDescriptor {
	return ct.desc.Indexes()
}

// Bootstrap creates the physical table and its indexes. If a table with the
// same name already exists it is reused when its oid, schema and indexes
// match, and the oid allocator is moved past the highest oid stored in it.
func (ct *CatalogTable[T]) Bootstrap(txn TxContext) error {
	if txn == nil {
		return dberror.InvalidTransaction("Bootstrap", ct.desc.name)
	}

	if existing, ok := ct.access.TableByName(ct.desc.name); ok {
		return ct.adopt(existing, txn)
	}
	if other, ok := ct.access.Table(ct.desc.oid); ok {
		return dberror.CatalogBootstrap(ct.desc.name,
			fmt.Sprintf("oid %d is already used by %s", ct.desc.oid, other.Name()))
	}

	if _, err := ct.access.CreateTable(ct.desc.oid, ct.desc.name, ct.desc.Schema(), txn); err != nil {
		return errors.Wrapf(err, "bootstrap %s", ct.desc.name)
	}
	for _, ix := range ct.desc.indexes {
		if err := ct.AddIndex(ix.Columns, ix.OID, ix.Name, ix.Constraint); err != nil {
			return err
		}
	}

	ct.log.Info("catalog table created", "oid", uint32(ct.desc.oid), "indexes", len(ct.desc.indexes))
	return nil
}

func (ct *CatalogTable[T]) adopt(existing *storage.Table, txn TxContext) error {
	if existing.OID() != ct.desc.oid {
		return dberror.CatalogBootstrap(ct.desc.name,
			fmt.Sprintf("found with oid %d, expected %d", existing.OID(), ct.desc.oid))
	}
	if !existing.Schema().Compatible(ct.desc.Schema()) {
		return dberror.CatalogBootstrap(ct.desc.name,
			fmt.Sprintf("schema %s does not match %s", existing.Schema().TupleDesc, ct.desc.Schema().TupleDesc))
	}

	have := existing.Indexes()
	for _, want := range ct.desc.indexes {
		if !slices.ContainsFunc(have, func(h storage.IndexDescriptor) bool { return sameIndex(h, want) }) {
			return dberror.CatalogBootstrap(ct.desc.name, "missing or different index "+want.String())
		}
	}

	if err := ct.seedAllocator(txn); err != nil {
		return err
	}
	ct.log.Debug("catalog table reused", "oid", uint32(ct.desc.oid), "next_oid", uint32(ct.oids.Peek()))
	return nil
}

func sameIndex(a, b storage.IndexDescriptor) bool {
	return a.OID == b.OID &&
		a.Name == b.Name &&
		a.Constraint == b.Constraint &&
		slices.Equal(a.Columns, b.Columns)
}

// seedAllocator moves the allocator past every oid already stored.
func (ct *CatalogTable[T]) seedAllocator(txn TxContext) error {
	if ct.desc.oidColumn == noOIDColumn {
		return nil
	}
	col := primitives.ColumnID(ct.desc.oidColumn)
	rows, err := ct.access.ScanByPredicate(ct.desc.oid, []primitives.ColumnID{col}, nil, txn)
	if err != nil {
		return errors.Wrapf(err, "seed oids of %s", ct.desc.name)
	}

	var highest primitives.OID
	for _, row := range rows {
		p := tuple.NewParser(row).ExpectFields(1)
		id := p.ReadOID()
		if err := p.Error(); err != nil {
			return errors.Wrapf(err, "seed oids of %s", ct.desc.name)
		}
		if id > highest {
			highest = id
		}
	}
	ct.oids.Observe(highest)
	return nil
}

// AddIndex declares an index on the table. The storage engine rejects it once
// the table holds rows, so in practice it is only usable during bootstrap.
func (ct *CatalogTable[T]) AddIndex(columns []primitives.ColumnID, indexOID primitives.OID, name string, constraint primitives.IndexConstraint) error {
	desc := storage.IndexDescriptor{
		OID:        indexOID,
		Name:       name,
		Columns:    columns,
		Constraint: constraint,
		Kind:       primitives.BTreeIndex,
	}
	if err := ct.access.CreateIndex(ct.desc.oid, desc); err != nil {
		return errors.Wrapf(err, "add index %s to %s", name, ct.desc.name)
	}
	return nil
}

// AllocateObjectID returns a fresh oid. Oids are never reused, even if the
// transaction that asked for one aborts.
func (ct *CatalogTable[T]) AllocateObjectID() (primitives.OID, error) {
	id, err := ct.oids.Next()
	if err != nil {
		return primitives.InvalidOID, errors.Wrapf(err, "allocate oid in %s", ct.desc.name)
	}
	ct.metrics.OIDAllocated(ct.desc.name)
	return id, nil
}

// InsertRow inserts one row given as column values; nil is NULL. It returns
// false when the row violates a constraint.
func (ct *CatalogTable[T]) InsertRow(values []types.Field, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("InsertRow", ct.desc.name)
	}
	b := tuple.NewBuilder(ct.desc.Schema().TupleDesc)
	for _, v := range values {
		if v == nil {
			b.AddNull()
		} else {
			b.AddField(v)
		}
	}
	tup, err := b.Build()
	if err != nil {
		return false, errors.Wrapf(err, "build %s row", ct.desc.name)
	}
	return ct.insertTuple("insert_row", tup, txn)
}

// Insert stores entity as a new row. It returns false when the row violates
// a constraint.
func (ct *CatalogTable[T]) Insert(entity T, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("Insert", ct.desc.name)
	}
	tup, err := ct.desc.CreateTuple(entity)
	if err != nil {
		return false, errors.Wrapf(err, "build %s row", ct.desc.name)
	}
	return ct.insertTuple("insert", tup, txn)
}

func (ct *CatalogTable[T]) insertTuple(op string, tup *tuple.Tuple, txn TxContext) (bool, error) {
	start := time.Now()
	ok, err := ct.access.InsertTuple(ct.desc.oid, tup, txn)
	ct.metrics.ObserveOp(ct.desc.name, op, start, ok, err)
	if err != nil {
		return false, errors.Wrapf(err, "insert into %s", ct.desc.name)
	}
	return ok, nil
}

// ScanByPredicate returns the raw rows matching pred, projected to columns
// (nil for all). The result is empty, never nil, when nothing matches.
func (ct *CatalogTable[T]) ScanByPredicate(columns []primitives.ColumnID, pred expression.Expr, txn TxContext) ([]*tuple.Tuple, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("ScanByPredicate", ct.desc.name)
	}
	start := time.Now()
	rows, err := ct.access.ScanByPredicate(ct.desc.oid, columns, pred, txn)
	ct.metrics.ObserveOp(ct.desc.name, "scan", start, true, err)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", ct.desc.name)
	}
	return rows, nil
}

// Find returns the parsed rows matching pred.
func (ct *CatalogTable[T]) Find(pred expression.Expr, txn TxContext) ([]T, error) {
	rows, err := ct.ScanByPredicate(nil, pred, txn)
	if err != nil {
		return nil, err
	}
	return ct.parseAll(rows, txn)
}

// All returns every row visible to txn.
func (ct *CatalogTable[T]) All(txn TxContext) ([]T, error) {
	return ct.Find(nil, txn)
}

// IndexScan returns the parsed rows whose key in the index starts with keys.
func (ct *CatalogTable[T]) IndexScan(indexOID primitives.OID, keys []types.Field, txn TxContext) ([]T, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("IndexScan", ct.desc.name)
	}
	start := time.Now()
	rows, err := ct.access.IndexScan(ct.desc.oid, indexOID, keys, txn)
	ct.metrics.ObserveOp(ct.desc.name, "index_scan", start, true, err)
	if err != nil {
		return nil, errors.Wrapf(err, "index scan %s", ct.desc.name)
	}
	return ct.parseAll(rows, txn)
}

// FindUnique returns the single row matching pred, or the zero T when there
// is none. More than one match is reported as corruption.
func (ct *CatalogTable[T]) FindUnique(pred expression.Expr, txn TxContext) (T, error) {
	found, err := ct.Find(pred, txn)
	if err != nil {
		var zero T
		return zero, err
	}
	return ct.atMostOne(found, pred)
}

// LookupUnique is FindUnique driven by an index.
func (ct *CatalogTable[T]) LookupUnique(indexOID primitives.OID, keys []types.Field, txn TxContext) (T, error) {
	found, err := ct.IndexScan(indexOID, keys, txn)
	if err != nil {
		var zero T
		return zero, err
	}
	return ct.atMostOne(found, keys)
}

func (ct *CatalogTable[T]) atMostOne(found []T, lookup any) (T, error) {
	var zero T
	switch len(found) {
	case 0:
		return zero, nil
	case 1:
		return found[0], nil
	default:
		err := dberror.Corruption(ct.desc.name, "%d rows match %v, expected at most one", len(found), lookup)
		ct.log.Error("catalog corruption", "rows", len(found), "lookup", fmt.Sprint(lookup), "error", err)
		return zero, err
	}
}

func (ct *CatalogTable[T]) parseAll(rows []*tuple.Tuple, txn TxContext) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := ct.desc.ParseTuple(row, txn.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s row", ct.desc.name)
		}
		out = append(out, v)
	}
	return out, nil
}

// DeleteByPredicate deletes every row matching pred and reports whether
// there was at least one.
func (ct *CatalogTable[T]) DeleteByPredicate(pred expression.Expr, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteByPredicate", ct.desc.name)
	}
	start := time.Now()
	n, err := ct.access.DeleteByPredicate(ct.desc.oid, pred, txn)
	ct.metrics.ObserveOp(ct.desc.name, "delete", start, n > 0, err)
	if err != nil {
		return false, errors.Wrapf(err, "delete from %s", ct.desc.name)
	}
	return n > 0, nil
}

// DeleteByIndex deletes every row whose key in the index starts with keys
// and reports whether there was at least one.
func (ct *CatalogTable[T]) DeleteByIndex(indexOID primitives.OID, keys []types.Field, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteByIndex", ct.desc.name)
	}
	start := time.Now()
	n, err := ct.access.DeleteByIndex(ct.desc.oid, indexOID, keys, txn)
	ct.metrics.ObserveOp(ct.desc.name, "delete_by_index", start, n > 0, err)
	if err != nil {
		return false, errors.Wrapf(err, "delete from %s", ct.desc.name)
	}
	return n > 0, nil
}
