package types

import (
	"strings"
	"unicode/utf8"

	"syscat/pkg/primitives"
)

// StringMaxSize is the byte limit of a catalog name column.
const StringMaxSize = 256

// StringField holds names and other text columns. MaxSize is in bytes.
type StringField struct {
	Value   string
	MaxSize int
}

// NewStringField truncates value to maxSize bytes, backing off to a rune
// boundary so the stored value stays valid UTF-8.
func NewStringField(value string, maxSize int) *StringField {
	if len(value) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return &StringField{Value: value, MaxSize: maxSize}
}

// NewVarcharField creates a StringField capped at StringMaxSize.
func NewVarcharField(value string) *StringField {
	return NewStringField(value, StringMaxSize)
}

// Compare orders strings bytewise.
func (s *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, mismatch(s, other)
	}
	return op.Holds(strings.Compare(s.Value, o.Value)), nil
}

func (s *StringField) Type() Type {
	return StringType
}

func (s *StringField) String() string {
	return s.Value
}

// Equals ignores MaxSize.
func (s *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	if !ok {
		return false
	}
	return s.Value == o.Value
}

func (s *StringField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte(s.Value)), nil
}
