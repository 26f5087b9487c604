package systable

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"syscat/pkg/catalog/schema"
	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
	"syscat/pkg/storage"
	"syscat/pkg/trigger"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

// Fixed oids of the catalog tables and their indexes. They sit below
// primitives.FirstNormalOID so they never collide with allocated oids.
const (
	DatabaseCatalogOID primitives.OID = 1262
	DatabasePkeyOID    primitives.OID = 2671
	DatabaseSkey0OID   primitives.OID = 2672

	SchemaCatalogOID primitives.OID = 2615
	SchemaPkeyOID    primitives.OID = 2684
	SchemaSkey0OID   primitives.OID = 2685

	TableCatalogOID primitives.OID = 1259
	TablePkeyOID    primitives.OID = 2662
	TableSkey0OID   primitives.OID = 2663
	TableSkey1OID   primitives.OID = 2664

	ColumnCatalogOID primitives.OID = 1249
	ColumnPkeyOID    primitives.OID = 2658
	ColumnSkey0OID   primitives.OID = 2659

	IndexCatalogOID primitives.OID = 2610
	IndexPkeyOID    primitives.OID = 2678
	IndexSkey0OID   primitives.OID = 2679
	IndexSkey1OID   primitives.OID = 2680

	TriggerCatalogOID primitives.OID = 2620
	TriggerPkeyOID    primitives.OID = 2702
	TriggerSkey0OID   primitives.OID = 2703
	TriggerSkey1OID   primitives.OID = 2704
	TriggerSkey2OID   primitives.OID = 2701
)

// Catalog table names.
const (
	DatabaseCatalogName = "pg_database"
	SchemaCatalogName   = "pg_namespace"
	TableCatalogName    = "pg_table"
	ColumnCatalogName   = "pg_attribute"
	IndexCatalogName    = "pg_index"
	TriggerCatalogName  = "pg_trigger"
)

// noOIDColumn marks a catalog whose rows are not keyed by an allocated oid.
const noOIDColumn = -1

// Descriptor holds everything static about one catalog table: name, oid,
// schema, indexes and the functions converting between T and a row.
// It does no I/O.
type Descriptor[T any] struct {
	name          string
	oid           primitives.OID
	oidColumn     int
	schemaFn      func() *schema.Schema
	indexes       []storage.IndexDescriptor
	createTupleFn func(td *tuple.TupleDescription, data T) (*tuple.Tuple, error)
	parseTupleFn  func(t *tuple.Tuple, txn transaction.TransactionID) (T, error)
}

func (d *Descriptor[T]) Name() string {
	return d.name
}

func (d *Descriptor[T]) OID() primitives.OID {
	return d.oid
}

func (d *Descriptor[T]) Schema() *schema.Schema {
	return d.schemaFn()
}

// Indexes returns a copy of the index descriptors in bootstrap order.
func (d *Descriptor[T]) Indexes() []storage.IndexDescriptor {
	out := make([]storage.IndexDescriptor, len(d.indexes))
	copy(out, d.indexes)
	return out
}

// CreateTuple converts data into a row of this catalog.
func (d *Descriptor[T]) CreateTuple(data T) (*tuple.Tuple, error) {
	return d.createTupleFn(d.Schema().TupleDesc, data)
}

// ParseTuple converts a row of this catalog back into T, stamping the
// reading transaction.
func (d *Descriptor[T]) ParseTuple(t *tuple.Tuple, txn transaction.TransactionID) (T, error) {
	return d.parseTupleFn(t, txn)
}

func btreeIndex(oid primitives.OID, name string, constraint primitives.IndexConstraint, columns ...primitives.ColumnID) storage.IndexDescriptor {
	return storage.IndexDescriptor{
		OID:        oid,
		Name:       name,
		Columns:    columns,
		Constraint: constraint,
		Kind:       primitives.BTreeIndex,
	}
}

func cachedSchema(build func() *schema.SchemaBuilder) func() *schema.Schema {
	return sync.OnceValue(func() *schema.Schema {
		return build().MustBuild()
	})
}

// pg_database
const (
	databaseColOID primitives.ColumnID = iota
	databaseColName
)

func newDatabaseDescriptor() *Descriptor[*DatabaseObject] {
	return &Descriptor[*DatabaseObject]{
		name:      DatabaseCatalogName,
		oid:       DatabaseCatalogOID,
		oidColumn: int(databaseColOID),
		schemaFn: cachedSchema(func() *schema.SchemaBuilder {
			return schema.NewSchemaBuilder(DatabaseCatalogOID, DatabaseCatalogName).
				AddPrimaryKey("database_oid", types.IntType).
				AddNotNullColumn("database_name", types.StringType)
		}),
		indexes: []storage.IndexDescriptor{
			btreeIndex(DatabasePkeyOID, "pg_database_pkey", primitives.ConstraintPrimaryKey, databaseColOID),
			btreeIndex(DatabaseSkey0OID, "pg_database_skey0", primitives.ConstraintUnique, databaseColName),
		},
		createTupleFn: func(td *tuple.TupleDescription, d *DatabaseObject) (*tuple.Tuple, error) {
			return tuple.NewBuilder(td).
				AddOID(d.OID).
				AddString(d.Name).
				Build()
		},
		parseTupleFn: func(t *tuple.Tuple, txn transaction.TransactionID) (*DatabaseObject, error) {
			p := tuple.NewParser(t).ExpectFields(2)
			obj := &DatabaseObject{
				OID:  p.ReadOID(),
				Name: p.ReadString(),
				Txn:  txn,
			}
			if err := p.Done(); err != nil {
				return nil, err
			}
			return obj, nil
		},
	}
}

// pg_namespace
const (
	schemaColOID primitives.ColumnID = iota
	schemaColName
)

func newSchemaDescriptor() *Descriptor[*SchemaCatalogObject] {
	return &Descriptor[*SchemaCatalogObject]{
		name:      SchemaCatalogName,
		oid:       SchemaCatalogOID,
		oidColumn: int(schemaColOID),
		schemaFn: cachedSchema(func() *schema.SchemaBuilder {
			return schema.NewSchemaBuilder(SchemaCatalogOID, SchemaCatalogName).
				AddPrimaryKey("schema_oid", types.IntType).
				AddNotNullColumn("schema_name", types.StringType)
		}),
		indexes: []storage.IndexDescriptor{
			btreeIndex(SchemaPkeyOID, "pg_namespace_pkey", primitives.ConstraintPrimaryKey, schemaColOID),
			btreeIndex(SchemaSkey0OID, "pg_namespace_skey0", primitives.ConstraintUnique, schemaColName),
		},
		createTupleFn: func(td *tuple.TupleDescription, s *SchemaCatalogObject) (*tuple.Tuple, error) {
			return tuple.NewBuilder(td).
				AddOID(s.OID).
				AddString(s.Name).
				Build()
		},
		parseTupleFn: func(t *tuple.Tuple, txn transaction.TransactionID) (*SchemaCatalogObject, error) {
			p := tuple.NewParser(t).ExpectFields(2)
			obj := &SchemaCatalogObject{
				OID:  p.ReadOID(),
				Name: p.ReadString(),
				Txn:  txn,
			}
			if err := p.Done(); err != nil {
				return nil, err
			}
			return obj, nil
		},
	}
}

// pg_table
const (
	tableColOID primitives.ColumnID = iota
	tableColName
	tableColSchemaOID
	tableColDatabaseOID
)

func newTableDescriptor() *Descriptor[*TableObject] {
	return &Descriptor[*TableObject]{
		name:      TableCatalogName,
		oid:       TableCatalogOID,
		oidColumn: int(tableColOID),
		schemaFn: cachedSchema(func() *schema.SchemaBuilder {
			return schema.NewSchemaBuilder(TableCatalogOID, TableCatalogName).
				AddPrimaryKey("table_oid", types.IntType).
				AddNotNullColumn("table_name", types.StringType).
				AddNotNullColumn("schema_oid", types.IntType).
				AddNotNullColumn("database_oid", types.IntType)
		}),
		indexes: []storage.IndexDescriptor{
			btreeIndex(TablePkeyOID, "pg_table_pkey", primitives.ConstraintPrimaryKey, tableColOID),
			btreeIndex(TableSkey0OID, "pg_table_skey0", primitives.ConstraintUnique, tableColDatabaseOID, tableColName),
			btreeIndex(TableSkey1OID, "pg_table_skey1", primitives.ConstraintDefault, tableColDatabaseOID),
		},
		createTupleFn: func(td *tuple.TupleDescription, t *TableObject) (*tuple.Tuple, error) {
			return tuple.NewBuilder(td).
				AddOID(t.OID).
				AddString(t.Name).
				AddOID(t.SchemaOID).
				AddOID(t.DatabaseOID).
				Build()
		},
		parseTupleFn: func(t *tuple.Tuple, txn transaction.TransactionID) (*TableObject, error) {
			p := tuple.NewParser(t).ExpectFields(4)
			obj := &TableObject{
				OID:         p.ReadOID(),
				Name:        p.ReadString(),
				SchemaOID:   p.ReadOID(),
				DatabaseOID: p.ReadOID(),
				Txn:         txn,
			}
			if err := p.Done(); err != nil {
				return nil, err
			}
			return obj, nil
		},
	}
}

// pg_attribute
const (
	columnColTableOID primitives.ColumnID = iota
	columnColName
	columnColID
	columnColType
	columnColNotNull
	columnColPrimary
)

func newColumnDescriptor() *Descriptor[*schema.ColumnMetadata] {
	return &Descriptor[*schema.ColumnMetadata]{
		name:      ColumnCatalogName,
		oid:       ColumnCatalogOID,
		oidColumn: noOIDColumn,
		schemaFn: cachedSchema(func() *schema.SchemaBuilder {
			return schema.NewSchemaBuilder(ColumnCatalogOID, ColumnCatalogName).
				AddPrimaryKey("table_oid", types.IntType).
				AddPrimaryKey("column_name", types.StringType).
				AddNotNullColumn("column_id", types.IntType).
				AddNotNullColumn("column_type", types.IntType).
				AddNotNullColumn("is_not_null", types.BoolType).
				AddNotNullColumn("is_primary", types.BoolType)
		}),
		indexes: []storage.IndexDescriptor{
			btreeIndex(ColumnPkeyOID, "pg_attribute_pkey", primitives.ConstraintPrimaryKey, columnColTableOID, columnColName),
			btreeIndex(ColumnSkey0OID, "pg_attribute_skey0", primitives.ConstraintDefault, columnColTableOID),
		},
		createTupleFn: func(td *tuple.TupleDescription, c *schema.ColumnMetadata) (*tuple.Tuple, error) {
			return tuple.NewBuilder(td).
				AddOID(c.TableID).
				AddString(c.Name).
				AddInt(int64(c.Position)).
				AddInt(int64(c.FieldType)).
				AddBool(c.NotNull).
				AddBool(c.IsPrimary).
				Build()
		},
		parseTupleFn: func(t *tuple.Tuple, _ transaction.TransactionID) (*schema.ColumnMetadata, error) {
			p := tuple.NewParser(t).ExpectFields(6)
			tableID := p.ReadOID()
			name := p.ReadString()
			position := p.ReadInt64()
			fieldType := types.Type(p.ReadInt64())
			notNull := p.ReadBool()
			isPrimary := p.ReadBool()
			if err := p.Done(); err != nil {
				return nil, err
			}
			if position < 0 {
				return nil, fmt.Errorf("column %q has negative position %d", name, position)
			}
			return schema.NewColumnMetadata(name, fieldType, primitives.ColumnID(position), tableID, isPrimary, notNull)
		},
	}
}

// pg_index
const (
	indexColOID primitives.ColumnID = iota
	indexColName
	indexColTableOID
	indexColKeyColumns
	indexColConstraint
)

func newIndexDescriptor() *Descriptor[*IndexObject] {
	return &Descriptor[*IndexObject]{
		name:      IndexCatalogName,
		oid:       IndexCatalogOID,
		oidColumn: int(indexColOID),
		schemaFn: cachedSchema(func() *schema.SchemaBuilder {
			return schema.NewSchemaBuilder(IndexCatalogOID, IndexCatalogName).
				AddPrimaryKey("index_oid", types.IntType).
				AddNotNullColumn("index_name", types.StringType).
				AddNotNullColumn("table_oid", types.IntType).
				AddColumn("key_columns", types.StringType).
				AddNotNullColumn("constraint_kind", types.IntType)
		}),
		indexes: []storage.IndexDescriptor{
			btreeIndex(IndexPkeyOID, "pg_index_pkey", primitives.ConstraintPrimaryKey, indexColOID),
			btreeIndex(IndexSkey0OID, "pg_index_skey0", primitives.ConstraintUnique, indexColName, indexColTableOID),
			btreeIndex(IndexSkey1OID, "pg_index_skey1", primitives.ConstraintDefault, indexColTableOID),
		},
		createTupleFn: func(td *tuple.TupleDescription, ix *IndexObject) (*tuple.Tuple, error) {
			return tuple.NewBuilder(td).
				AddOID(ix.OID).
				AddString(ix.Name).
				AddOID(ix.TableOID).
				AddString(formatKeyColumns(ix.Columns)).
				AddInt(int64(ix.Constraint)).
				Build()
		},
		parseTupleFn: func(t *tuple.Tuple, txn transaction.TransactionID) (*IndexObject, error) {
			p := tuple.NewParser(t).ExpectFields(5)
			obj := &IndexObject{
				OID:      p.ReadOID(),
				Name:     p.ReadString(),
				TableOID: p.ReadOID(),
				Txn:      txn,
			}
			keyColumns := p.ReadString()
			obj.Constraint = primitives.IndexConstraint(p.ReadInt64())
			if err := p.Done(); err != nil {
				return nil, err
			}
			cols, err := parseKeyColumns(keyColumns)
			if err != nil {
				return nil, fmt.Errorf("index %s: %w", obj.Name, err)
			}
			obj.Columns = cols
			return obj, nil
		},
	}
}

// formatKeyColumns renders column ids as "0,1".
func formatKeyColumns(cols []primitives.ColumnID) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(parts, ",")
}

func parseKeyColumns(s string) ([]primitives.ColumnID, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	cols := make([]primitives.ColumnID, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad key column %q: %w", part, err)
		}
		cols[i] = primitives.ColumnID(v)
	}
	return cols, nil
}

// pg_trigger
const (
	triggerColOID primitives.ColumnID = iota
	triggerColRelID
	triggerColName
	triggerColFunction
	triggerColType
	triggerColArgs
	triggerColQual
	triggerColTimestamp
)

func newTriggerDescriptor() *Descriptor[*trigger.Trigger] {
	return &Descriptor[*trigger.Trigger]{
		name:      TriggerCatalogName,
		oid:       TriggerCatalogOID,
		oidColumn: int(triggerColOID),
		schemaFn: cachedSchema(func() *schema.SchemaBuilder {
			return schema.NewSchemaBuilder(TriggerCatalogOID, TriggerCatalogName).
				AddPrimaryKey("oid", types.IntType).
				AddNotNullColumn("tgrelid", types.IntType).
				AddNotNullColumn("tgname", types.StringType).
				AddColumn("tgfoid", types.StringType).
				AddNotNullColumn("tgtype", types.IntType).
				AddColumn("tgargs", types.StringType).
				AddColumn("tgqual", types.BinaryType).
				AddNotNullColumn("timestamp", types.TimestampType)
		}),
		indexes: []storage.IndexDescriptor{
			btreeIndex(TriggerPkeyOID, "pg_trigger_pkey", primitives.ConstraintPrimaryKey, triggerColOID),
			btreeIndex(TriggerSkey0OID, "pg_trigger_skey0", primitives.ConstraintDefault, triggerColRelID, triggerColType),
			btreeIndex(TriggerSkey1OID, "pg_trigger_skey1", primitives.ConstraintDefault, triggerColRelID),
			btreeIndex(TriggerSkey2OID, "pg_trigger_skey2", primitives.ConstraintUnique, triggerColName, triggerColRelID),
		},
		createTupleFn: func(td *tuple.TupleDescription, tg *trigger.Trigger) (*tuple.Tuple, error) {
			b := tuple.NewBuilder(td).
				AddOID(tg.OID).
				AddOID(tg.TableOID).
				AddString(tg.Name)
			if tg.FunctionRef == "" {
				b.AddNull()
			} else {
				b.AddString(tg.FunctionRef)
			}
			b.AddInt(int64(tg.Type))
			if tg.Args == "" {
				b.AddNull()
			} else {
				b.AddString(tg.Args)
			}
			return b.AddBinary(tg.Condition).
				AddTimestamp(tg.Timestamp).
				Build()
		},
		parseTupleFn: func(t *tuple.Tuple, txn transaction.TransactionID) (*trigger.Trigger, error) {
			p := tuple.NewParser(t).ExpectFields(8)
			tg := &trigger.Trigger{
				OID:         p.ReadOID(),
				TableOID:    p.ReadOID(),
				Name:        p.ReadString(),
				FunctionRef: p.ReadString(),
			}
			rawType := p.ReadInt64()
			tg.Args = p.ReadString()
			tg.Condition = bytes.Clone(p.ReadBinary())
			tg.Timestamp = p.ReadTimestamp()
			tg.Txn = txn
			if err := p.Done(); err != nil {
				return nil, err
			}
			if rawType < -1<<15 || rawType >= 1<<15 {
				return nil, fmt.Errorf("trigger %s: tgtype %d out of range", tg.Name, rawType)
			}
			tg.Type = trigger.Type(rawType)
			return tg, nil
		},
	}
}
