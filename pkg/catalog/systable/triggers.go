package systable

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"syscat/pkg/catalog/catalogio"
	"syscat/pkg/dberror"
	"syscat/pkg/expression"
	"syscat/pkg/logging"
	"syscat/pkg/metrics"
	"syscat/pkg/primitives"
	"syscat/pkg/trigger"
	"syscat/pkg/types"
)

// TriggerCatalog is pg_trigger. A trigger is identified by its oid and,
// within its table, by its name; the (tgname, tgrelid) index is unique.
//
// Dropping a trigger notifies the MetadataListener so the table runtime
// can rebuild its cached trigger list.
type TriggerCatalog struct {
	*CatalogTable[*trigger.Trigger]
	resolver TableResolver
	listener MetadataListener
}

// NewTriggerCatalog builds pg_trigger. resolver finds the table named in a
// DROP TRIGGER; listener may be nil.
func NewTriggerCatalog(access catalogio.CatalogAccess, dbOID primitives.OID, resolver TableResolver, listener MetadataListener, m *metrics.Metrics) *TriggerCatalog {
	return &TriggerCatalog{
		CatalogTable: NewCatalogTable(access, newTriggerDescriptor(), dbOID, m),
		resolver:     resolver,
		listener:     listener,
	}
}

// InsertTrigger assigns def a fresh oid and records it. ok is false when the
// table already has a trigger with that name; the oid is then not reused.
func (tc *TriggerCatalog) InsertTrigger(def *trigger.Trigger, txn TxContext) (primitives.OID, bool, error) {
	if txn == nil {
		return primitives.InvalidOID, false, dberror.InvalidTransaction("InsertTrigger", TriggerCatalogName)
	}
	if def == nil {
		return primitives.InvalidOID, false, errors.New("nil trigger definition")
	}
	if err := def.Validate(); err != nil {
		return primitives.InvalidOID, false, errors.Wrap(err, "insert trigger")
	}

	id, err := tc.AllocateObjectID()
	if err != nil {
		return primitives.InvalidOID, false, err
	}

	row := *def
	row.OID = id
	if row.Timestamp.IsZero() {
		row.Timestamp = time.Now()
	}

	ok, err := tc.Insert(&row, txn)
	if err != nil || !ok {
		return primitives.InvalidOID, false, err
	}

	logging.WithTx(int64(txn.ID)).Debug("trigger inserted",
		"trigger", row.Name, "oid", uint32(id), "table_oid", uint32(row.TableOID))
	return id, true, nil
}

// GetTriggerOID returns the oid of the trigger called name on tableOID, or
// InvalidOID when there is none.
func (tc *TriggerCatalog) GetTriggerOID(name string, tableOID primitives.OID, txn TxContext) (primitives.OID, error) {
	if txn == nil {
		return primitives.InvalidOID, dberror.InvalidTransaction("GetTriggerOID", TriggerCatalogName)
	}

	pred := expression.And(
		expression.ColumnEquals(triggerColName, types.NewVarcharField(name)),
		expression.ColumnEquals(triggerColRelID, types.NewIntField(int64(tableOID))),
	)
	rows, err := tc.ScanByPredicate([]primitives.ColumnID{triggerColOID}, pred, txn)
	if err != nil {
		return primitives.InvalidOID, err
	}

	switch len(rows) {
	case 0:
		return primitives.InvalidOID, nil
	case 1:
		f, err := rows[0].GetField(0)
		if err != nil {
			return primitives.InvalidOID, err
		}
		v, ok := f.(*types.IntField)
		if !ok {
			return primitives.InvalidOID, dberror.Corruption(TriggerCatalogName, "trigger %s has oid %v", name, f)
		}
		return primitives.OID(v.Value), nil
	default:
		err := dberror.Corruption(TriggerCatalogName, "%d triggers named %s on table %d", len(rows), name, tableOID)
		tc.log.Error("catalog corruption", "trigger", name, "table_oid", uint32(tableOID), "error", err)
		return primitives.InvalidOID, err
	}
}

// GetTriggerByOID returns the trigger with the given oid, or nil.
func (tc *TriggerCatalog) GetTriggerByOID(id primitives.OID, txn TxContext) (*trigger.Trigger, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetTriggerByOID", TriggerCatalogName)
	}
	return tc.LookupUnique(TriggerPkeyOID, []types.Field{types.NewIntField(int64(id))}, txn)
}

// DeleteTriggerByName removes the trigger called name on tableOID and
// reports whether it existed.
func (tc *TriggerCatalog) DeleteTriggerByName(name string, tableOID primitives.OID, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteTriggerByName", TriggerCatalogName)
	}
	return tc.DeleteByIndex(TriggerSkey2OID, []types.Field{
		types.NewVarcharField(name),
		types.NewIntField(int64(tableOID)),
	}, txn)
}

// DeleteTriggersByTable removes every trigger of a table.
func (tc *TriggerCatalog) DeleteTriggersByTable(tableOID primitives.OID, txn TxContext) (bool, error) {
	if txn == nil {
		return false, dberror.InvalidTransaction("DeleteTriggersByTable", TriggerCatalogName)
	}
	return tc.DeleteByIndex(TriggerSkey1OID, []types.Field{types.NewIntField(int64(tableOID))}, txn)
}

// GetTriggersByType returns the triggers of tableOID whose type is exactly typ.
func (tc *TriggerCatalog) GetTriggersByType(tableOID primitives.OID, typ trigger.Type, txn TxContext) (*trigger.TriggerList, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetTriggersByType", TriggerCatalogName)
	}
	return tc.triggerList(expression.And(
		expression.ColumnEquals(triggerColType, types.NewIntField(int64(typ))),
		expression.ColumnEquals(triggerColRelID, types.NewIntField(int64(tableOID))),
	), txn)
}

// GetTriggers returns every trigger of tableOID.
func (tc *TriggerCatalog) GetTriggers(tableOID primitives.OID, txn TxContext) (*trigger.TriggerList, error) {
	if txn == nil {
		return nil, dberror.InvalidTransaction("GetTriggers", TriggerCatalogName)
	}
	return tc.triggerList(expression.ColumnEquals(triggerColRelID, types.NewIntField(int64(tableOID))), txn)
}

func (tc *TriggerCatalog) triggerList(pred expression.Expr, txn TxContext) (*trigger.TriggerList, error) {
	found, err := tc.Find(pred, txn)
	if err != nil {
		return nil, err
	}
	list := &trigger.TriggerList{}
	for _, tg := range found {
		list.AddTrigger(*tg)
	}
	return list, nil
}

// DropTrigger removes trigger triggerName from table tableName of database
// databaseName and tells the listener, which refreshes the table's trigger
// cache. A missing table or trigger is a dberror.ErrTriggerDrop.
func (tc *TriggerCatalog) DropTrigger(databaseName, tableName, triggerName string, txn TxContext) error {
	if txn == nil {
		return dberror.InvalidTransaction("DropTrigger", TriggerCatalogName)
	}
	if tc.resolver == nil {
		return dberror.TriggerDrop("NO_RESOLVER", "trigger catalog has no table resolver", nil)
	}
	log := logging.WithTx(int64(txn.ID)).With("trigger", triggerName, "table", tableName)

	table, err := tc.resolver.ResolveTable(databaseName, tableName, txn)
	if err != nil {
		return dberror.TriggerDrop("TABLE_LOOKUP_FAILED", fmt.Sprintf("%s.%s", databaseName, tableName), err)
	}
	if table == nil {
		log.Debug("drop trigger: no such table")
		return dberror.TriggerDrop("TABLE_NOT_FOUND", fmt.Sprintf("table %s.%s does not exist", databaseName, tableName), nil)
	}

	triggerOID, err := tc.GetTriggerOID(triggerName, table.OID, txn)
	if err != nil {
		return err
	}
	if !triggerOID.IsValid() {
		log.Debug("drop trigger: no such trigger")
		return dberror.TriggerDrop("TRIGGER_NOT_FOUND", fmt.Sprintf("trigger %s on %s does not exist", triggerName, tableName), nil)
	}

	deleted, err := tc.DeleteTriggerByName(triggerName, table.OID, txn)
	if err != nil {
		return err
	}
	if !deleted {
		return dberror.TriggerDrop("TRIGGER_NOT_FOUND", fmt.Sprintf("trigger %s on %s was already dropped", triggerName, tableName), nil)
	}

	if tc.listener != nil {
		if err := tc.listener.OnMetadataChanged(table.OID, TriggerDropped, txn); err != nil {
			return errors.Wrapf(err, "refresh triggers of %s", tableName)
		}
	}

	log.Info("trigger dropped", "oid", uint32(triggerOID), "table_oid", uint32(table.OID))
	return nil
}
