// Package trigger holds the trigger metadata value objects the catalog hands
// out: a Trigger per pg_trigger row and the TriggerList a table caches.
package trigger

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"syscat/pkg/concurrency/transaction"
	"syscat/pkg/primitives"
)

// Type is the tgtype bit set. It fits in 16 bits.
type Type int16

const (
	TypeRow      Type = 1 << 0
	TypeBefore   Type = 1 << 1
	TypeInsert   Type = 1 << 2
	TypeDelete   Type = 1 << 3
	TypeUpdate   Type = 1 << 4
	TypeTruncate Type = 1 << 5
	TypeInstead  Type = 1 << 6

	eventMask = TypeInsert | TypeDelete | TypeUpdate | TypeTruncate
	validMask = TypeRow | TypeBefore | eventMask | TypeInstead
)

// Common combinations.
const (
	BeforeInsertRow       = TypeRow | TypeBefore | TypeInsert
	BeforeUpdateRow       = TypeRow | TypeBefore | TypeUpdate
	BeforeDeleteRow       = TypeRow | TypeBefore | TypeDelete
	AfterInsertRow        = TypeRow | TypeInsert
	AfterUpdateRow        = TypeRow | TypeUpdate
	AfterDeleteRow        = TypeRow | TypeDelete
	BeforeInsertStatement = TypeBefore | TypeInsert
	BeforeUpdateStatement = TypeBefore | TypeUpdate
	BeforeDeleteStatement = TypeBefore | TypeDelete
	AfterInsertStatement  = TypeInsert
	AfterUpdateStatement  = TypeUpdate
	AfterDeleteStatement  = TypeDelete
	InsteadOfInsertRow    = TypeRow | TypeInstead | TypeInsert
)

func (t Type) IsRow() bool     { return t&TypeRow != 0 }
func (t Type) IsBefore() bool  { return t&TypeBefore != 0 }
func (t Type) IsInstead() bool { return t&TypeInstead != 0 }
func (t Type) IsAfter() bool   { return !t.IsBefore() && !t.IsInstead() }

// Fires reports whether the trigger fires on event, one of TypeInsert,
// TypeDelete, TypeUpdate or TypeTruncate.
func (t Type) Fires(event Type) bool {
	return t&event&eventMask != 0
}

// Validate rejects unknown bits, a missing event and BEFORE combined with INSTEAD OF.
func (t Type) Validate() error {
	if t&^validMask != 0 {
		return errors.Newf("trigger type %d has unknown bits", int16(t))
	}
	if t&eventMask == 0 {
		return errors.Newf("trigger type %d names no event", int16(t))
	}
	if t.IsBefore() && t.IsInstead() {
		return errors.Newf("trigger type %d is both BEFORE and INSTEAD OF", int16(t))
	}
	return nil
}

func (t Type) String() string {
	var parts []string
	switch {
	case t.IsInstead():
		parts = append(parts, "INSTEAD OF")
	case t.IsBefore():
		parts = append(parts, "BEFORE")
	default:
		parts = append(parts, "AFTER")
	}

	var events []string
	for _, e := range []struct {
		bit  Type
		name string
	}{{TypeInsert, "INSERT"}, {TypeUpdate, "UPDATE"}, {TypeDelete, "DELETE"}, {TypeTruncate, "TRUNCATE"}} {
		if t&e.bit != 0 {
			events = append(events, e.name)
		}
	}
	parts = append(parts, strings.Join(events, " OR "))

	if t.IsRow() {
		parts = append(parts, "FOR EACH ROW")
	} else {
		parts = append(parts, "FOR EACH STATEMENT")
	}
	return strings.Join(parts, " ")
}

// ParseType builds a Type from its SQL spelling: timing is BEFORE, AFTER or
// INSTEAD OF, level is ROW or STATEMENT and events are INSERT, UPDATE, DELETE
// or TRUNCATE. Matching is case-insensitive.
func ParseType(timing, level string, events ...string) (Type, error) {
	var t Type
	switch strings.ToUpper(strings.TrimSpace(timing)) {
	case "BEFORE":
		t |= TypeBefore
	case "AFTER", "":
	case "INSTEAD", "INSTEAD OF":
		t |= TypeInstead
	default:
		return 0, errors.Newf("unknown trigger timing %q", timing)
	}

	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ROW", "":
		t |= TypeRow
	case "STATEMENT":
	default:
		return 0, errors.Newf("unknown trigger level %q", level)
	}

	for _, e := range events {
		switch strings.ToUpper(strings.TrimSpace(e)) {
		case "INSERT":
			t |= TypeInsert
		case "UPDATE":
			t |= TypeUpdate
		case "DELETE":
			t |= TypeDelete
		case "TRUNCATE":
			t |= TypeTruncate
		default:
			return 0, errors.Newf("unknown trigger event %q", e)
		}
	}
	return t, t.Validate()
}

// Trigger is one trigger as recorded in pg_trigger. Values are snapshots:
// Txn names the transaction that read the row and is informational only.
type Trigger struct {
	OID         primitives.OID
	TableOID    primitives.OID
	Name        string
	FunctionRef string // may be empty
	Type        Type
	Args        string // may be empty
	Condition   []byte // opaque, nil when the trigger has no WHEN clause
	Timestamp   time.Time
	Txn         transaction.TransactionID
}

// Validate checks the fields a new trigger must carry.
func (t *Trigger) Validate() error {
	if t.Name == "" {
		return errors.New("trigger name cannot be empty")
	}
	if !t.TableOID.IsValid() {
		return errors.Newf("trigger %q has no table", t.Name)
	}
	return t.Type.Validate()
}

// Equal compares everything except the reading transaction. Timestamps are
// compared at the microsecond precision the catalog stores.
func (t *Trigger) Equal(o *Trigger) bool {
	return t.OID == o.OID &&
		t.TableOID == o.TableOID &&
		t.Name == o.Name &&
		t.FunctionRef == o.FunctionRef &&
		t.Type == o.Type &&
		t.Args == o.Args &&
		bytes.Equal(t.Condition, o.Condition) &&
		t.Timestamp.Truncate(time.Microsecond).Equal(o.Timestamp.Truncate(time.Microsecond))
}

func (t *Trigger) String() string {
	return fmt.Sprintf("TRIGGER %s %s ON %d EXECUTE %s(%s)", t.Name, t.Type, t.TableOID, t.FunctionRef, t.Args)
}

// TriggerList is an ordered set of triggers for one table. The zero value is
// an empty list; functions in this module never return a nil *TriggerList.
type TriggerList struct {
	triggers []Trigger
}

// NewTriggerList copies triggers into a new list.
func NewTriggerList(triggers ...Trigger) *TriggerList {
	l := &TriggerList{triggers: make([]Trigger, 0, len(triggers))}
	for _, t := range triggers {
		l.AddTrigger(t)
	}
	return l
}

// AddTrigger appends a copy of t.
func (l *TriggerList) AddTrigger(t Trigger) {
	t.Condition = bytes.Clone(t.Condition)
	l.triggers = append(l.triggers, t)
}

func (l *TriggerList) Len() int {
	return len(l.triggers)
}

// Get returns the i-th trigger.
func (l *TriggerList) Get(i int) Trigger {
	return l.triggers[i]
}

// All returns a copy of the triggers in order.
func (l *TriggerList) All() []Trigger {
	out := make([]Trigger, len(l.triggers))
	copy(out, l.triggers)
	return out
}

// ByType returns the triggers whose type equals typ exactly.
func (l *TriggerList) ByType(typ Type) *TriggerList {
	out := &TriggerList{}
	for _, t := range l.triggers {
		if t.Type == typ {
			out.AddTrigger(t)
		}
	}
	return out
}

// HasType reports whether any trigger has exactly typ.
func (l *TriggerList) HasType(typ Type) bool {
	for _, t := range l.triggers {
		if t.Type == typ {
			return true
		}
	}
	return false
}

// Find returns the trigger called name.
func (l *TriggerList) Find(name string) (Trigger, bool) {
	for _, t := range l.triggers {
		if t.Name == name {
			return t, true
		}
	}
	return Trigger{}, false
}

// Names lists trigger names in order.
func (l *TriggerList) Names() []string {
	out := make([]string, len(l.triggers))
	for i, t := range l.triggers {
		out[i] = t.Name
	}
	return out
}
