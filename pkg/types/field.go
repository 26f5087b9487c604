package types

import "syscat/pkg/primitives"

// Field is a typed scalar cell. A nil Field stands for SQL NULL.
type Field interface {
	Compare(op primitives.Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	Hash() (primitives.HashCode, error)
}
