package primitives

// IndexConstraint classifies how an index constrains the rows of its table.
type IndexConstraint int

const (
	// ConstraintDefault is a plain secondary index with no uniqueness guarantee.
	ConstraintDefault IndexConstraint = iota
	// ConstraintPrimaryKey is a unique, not-null index naming the row.
	ConstraintPrimaryKey
	// ConstraintUnique rejects two live rows with the same key.
	ConstraintUnique
)

func (c IndexConstraint) String() string {
	switch c {
	case ConstraintDefault:
		return "DEFAULT"
	case ConstraintPrimaryKey:
		return "PRIMARY_KEY"
	case ConstraintUnique:
		return "UNIQUE"
	default:
		return "UNKNOWN"
	}
}

// IsUnique reports whether the constraint forbids duplicate keys.
func (c IndexConstraint) IsUnique() bool {
	return c == ConstraintPrimaryKey || c == ConstraintUnique
}

// IndexKind names the physical structure backing an index.
type IndexKind string

const (
	BTreeIndex IndexKind = "BTREE"
)
