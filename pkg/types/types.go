package types

import (
	"fmt"
	"strings"
)

type Type int

const (
	IntType Type = iota
	StringType
	BoolType
	BinaryType
	TimestampType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INTEGER"
	case StringType:
		return "VARCHAR"
	case BoolType:
		return "BOOLEAN"
	case BinaryType:
		return "VARBINARY"
	case TimestampType:
		return "TIMESTAMP"
	default:
		return "UNKNOWN_TYPE"
	}
}

// IsValidType reports whether t is one of the known column types.
func IsValidType(t Type) bool {
	return t >= IntType && t <= TimestampType
}

// ParseType maps a SQL type name (case-insensitive) to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "INT", "INTEGER", "SMALLINT", "BIGINT":
		return IntType, nil
	case "VARCHAR", "TEXT", "STRING":
		return StringType, nil
	case "BOOL", "BOOLEAN":
		return BoolType, nil
	case "VARBINARY", "BYTEA", "BINARY":
		return BinaryType, nil
	case "TIMESTAMP":
		return TimestampType, nil
	default:
		return 0, fmt.Errorf("unsupported column type %q", name)
	}
}
