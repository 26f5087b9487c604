// Package dberror is the structured error taxonomy shared by the storage
// engine and the catalog. A DBError carries category, code and origin; the
// package-level sentinels let callers test identity with errors.Is no matter
// how many times the error was wrapped on the way up.
package dberror

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid caller input, such
	// as a nil transaction or an unknown table.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents temporary errors that might succeed on retry.
	ErrCategoryTransient

	// ErrCategorySystem represents errors requiring administrator intervention.
	ErrCategorySystem

	// ErrCategoryData represents corrupted or inconsistent catalog contents.
	ErrCategoryData

	// ErrCategoryConcurrency represents conflicts between concurrent transactions.
	ErrCategoryConcurrency
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "USER"
	case ErrCategoryTransient:
		return "TRANSIENT"
	case ErrCategorySystem:
		return "SYSTEM"
	case ErrCategoryData:
		return "DATA"
	case ErrCategoryConcurrency:
		return "CONCURRENCY"
	default:
		return "UNKNOWN"
	}
}

// Sentinels. Test with errors.Is.
var (
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrCatalogBootstrap    = errors.New("catalog bootstrap failed")
	ErrTriggerDrop         = errors.New("trigger drop failed")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrWriteConflict       = errors.New("write-write conflict")
	ErrTableNotFound       = errors.New("table not found")
	ErrTransactionClosed   = errors.New("transaction is not active")
	ErrObjectNotFound      = errors.New("object not found")
	ErrObjectExists        = errors.New("object already exists")
)

// DBError represents a structured database error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "TRIGGER_NOT_FOUND").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	Detail string

	// Operation identifies the catalog or storage operation being performed.
	// Examples: "DropTrigger", "InsertTuple", "Bootstrap".
	Operation string

	// Component identifies where the error originated.
	// Examples: "pg_trigger", "storage", "catalog".
	Component string

	// Cause is the underlying error that triggered this database error.
	Cause error
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// Wrap wraps an existing error with database-specific context information.
// If the error already is or contains a DBError, the existing error is
// enriched with operation and component (only if not already set).
func Wrap(err error, code, operation, component string) error {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return err
	}

	return &DBError{
		Code:      code,
		Category:  categoryOf(err),
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
	}
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}

	if e.Operation != "" {
		fmt.Fprintf(&b, " (operation: %s", e.Operation)
		if e.Component != "" {
			fmt.Fprintf(&b, ", component: %s", e.Component)
		}
		b.WriteString(")")
	}

	if e.Cause != nil && e.Cause.Error() != e.Message {
		fmt.Fprintf(&b, " caused by: %v", e.Cause)
	}

	return b.String()
}

// Unwrap returns the underlying cause error.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// mark stamps a DBError with a sentinel identity and a stack trace.
func mark(e *DBError, sentinel error) error {
	return errors.WithStackDepth(errors.Mark(e, sentinel), 2)
}

// InvalidTransaction reports a call made without a usable transaction.
func InvalidTransaction(operation, component string) error {
	e := New(ErrCategoryUser, "INVALID_TRANSACTION", "transaction is required")
	e.Operation, e.Component = operation, component
	return mark(e, ErrInvalidTransaction)
}

// TransactionClosed reports use of a transaction that already committed or aborted.
func TransactionClosed(operation string, txID int64) error {
	e := New(ErrCategoryUser, "TRANSACTION_CLOSED", "transaction is not active")
	e.Detail = fmt.Sprintf("TID-%d", txID)
	e.Operation = operation
	return mark(e, ErrTransactionClosed)
}

// CatalogBootstrap reports a catalog table that cannot be created or reused.
func CatalogBootstrap(catalog, detail string) error {
	e := New(ErrCategorySystem, "CATALOG_BOOTSTRAP", "catalog table is incompatible")
	e.Detail, e.Operation, e.Component = detail, "Bootstrap", catalog
	return mark(e, ErrCatalogBootstrap)
}

// TriggerDrop reports a DROP TRIGGER that could not find its target.
func TriggerDrop(code, detail string, cause error) error {
	e := New(ErrCategoryUser, code, "cannot drop trigger")
	e.Detail, e.Operation, e.Component, e.Cause = detail, "DropTrigger", "pg_trigger", cause
	return mark(e, ErrTriggerDrop)
}

// ConstraintViolation reports a unique, primary key or NOT NULL violation.
func ConstraintViolation(table, detail string) error {
	e := New(ErrCategoryUser, "CONSTRAINT_VIOLATION", "constraint violated")
	e.Detail, e.Operation, e.Component = detail, "InsertTuple", table
	return mark(e, ErrConstraintViolation)
}

// WriteConflict reports a delete racing another live transaction's delete.
func WriteConflict(table string, owner int64) error {
	e := New(ErrCategoryConcurrency, "WRITE_CONFLICT", "row is being deleted by another transaction")
	e.Detail, e.Operation, e.Component = fmt.Sprintf("owner TID-%d", owner), "Delete", table
	return mark(e, ErrWriteConflict)
}

// TableNotFound reports a storage table or directory entry that does not exist.
func TableNotFound(operation, name string) error {
	e := New(ErrCategoryUser, "TABLE_NOT_FOUND", "table does not exist")
	e.Detail, e.Operation = name, operation
	return mark(e, ErrTableNotFound)
}

// ObjectNotFound reports a database, schema or table named in a DDL
// statement that does not exist.
func ObjectNotFound(operation, kind, name string) error {
	e := New(ErrCategoryUser, "UNDEFINED_OBJECT", kind+" does not exist")
	e.Detail, e.Operation, e.Component = name, operation, "catalog"
	return mark(e, ErrObjectNotFound)
}

// ObjectExists reports a CREATE whose name is already taken.
func ObjectExists(operation, kind, name string) error {
	e := New(ErrCategoryUser, "DUPLICATE_OBJECT", kind+" already exists")
	e.Detail, e.Operation, e.Component = name, operation, "catalog"
	return mark(e, ErrObjectExists)
}

// Corruption builds an assertion failure for catalog contents that break an
// invariant the catalog maintains, e.g. two rows under a unique name.
func Corruption(component, format string, args ...any) error {
	err := errors.AssertionFailedf(format, args...)
	return errors.Wrapf(err, "%s", component)
}

// IsCorruption reports whether err is, or wraps, a corruption assertion.
func IsCorruption(err error) bool {
	return errors.HasAssertionFailure(err)
}

// Category classifies any error: a DBError reports its own category,
// assertion failures are data errors, everything else is a system error.
func Category(err error) ErrorCategory {
	return categoryOf(err)
}

func categoryOf(err error) ErrorCategory {
	var dbErr *DBError
	switch {
	case errors.As(err, &dbErr):
		return dbErr.Category
	case errors.HasAssertionFailure(err):
		return ErrCategoryData
	case errors.Is(err, ErrWriteConflict):
		return ErrCategoryConcurrency
	default:
		return ErrCategorySystem
	}
}
