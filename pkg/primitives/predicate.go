package primitives

// Predicate is a comparison operator used in catalog scans.
type Predicate int

const (
	Equals Predicate = iota
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	NotEqual
)

var predicateSymbols = [...]string{
	Equals:             "=",
	LessThan:           "<",
	GreaterThan:        ">",
	LessThanOrEqual:    "<=",
	GreaterThanOrEqual: ">=",
	NotEqual:           "!=",
}

// Valid reports whether p is one of the declared operators.
func (p Predicate) Valid() bool {
	return p >= Equals && p <= NotEqual
}

func (p Predicate) String() string {
	if !p.Valid() {
		return "UNKNOWN"
	}
	return predicateSymbols[p]
}

// Holds reports whether the predicate accepts a three-way comparison result,
// as returned by cmp.Compare or bytes.Compare.
func (p Predicate) Holds(c int) bool {
	switch p {
	case Equals:
		return c == 0
	case LessThan:
		return c < 0
	case GreaterThan:
		return c > 0
	case LessThanOrEqual:
		return c <= 0
	case GreaterThanOrEqual:
		return c >= 0
	case NotEqual:
		return c != 0
	}
	return false
}
