// Package expression builds and evaluates the small predicate trees the
// catalog hands to the storage engine. A tree is an owned value: callers build
// it, pass it to a scan or delete, and drop it.
package expression

import (
	"fmt"
	"strings"

	"syscat/pkg/primitives"
	"syscat/pkg/types"
)

// Expr is a node of a predicate tree.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// ColumnRef reads a column of the tuple under evaluation.
type ColumnRef struct {
	Column primitives.ColumnID
	Type   types.Type
}

// Constant is a literal operand. A nil Value is NULL.
type Constant struct {
	Value types.Field
}

// Comparison applies Op to two operands.
type Comparison struct {
	Op          primitives.Predicate
	Left, Right Expr
}

// Conjunction is true when every term is true. An empty conjunction matches
// every tuple.
type Conjunction struct {
	Terms []Expr
}

func (*ColumnRef) exprNode()   {}
func (*Constant) exprNode()    {}
func (*Comparison) exprNode()  {}
func (*Conjunction) exprNode() {}

func (c *ColumnRef) String() string {
	return fmt.Sprintf("$%d", c.Column)
}

func (c *Constant) String() string {
	if c.Value == nil {
		return "NULL"
	}
	if c.Value.Type() == types.StringType {
		return fmt.Sprintf("'%s'", c.Value.String())
	}
	return c.Value.String()
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

func (c *Conjunction) String() string {
	if len(c.Terms) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(c.Terms))
	for i, t := range c.Terms {
		parts[i] = "(" + t.String() + ")"
	}
	return strings.Join(parts, " AND ")
}

// Column references column id of the given type.
func Column(id primitives.ColumnID, typ types.Type) *ColumnRef {
	return &ColumnRef{Column: id, Type: typ}
}

// Const wraps a field value as a literal.
func Const(value types.Field) *Constant {
	return &Constant{Value: value}
}

// Compare builds "left op right".
func Compare(op primitives.Predicate, left, right Expr) *Comparison {
	return &Comparison{Op: op, Left: left, Right: right}
}

// Equal builds "left = right".
func Equal(left, right Expr) *Comparison {
	return Compare(primitives.Equals, left, right)
}

// ColumnEquals is shorthand for Equal(Column(id, value.Type()), Const(value)).
func ColumnEquals(id primitives.ColumnID, value types.Field) *Comparison {
	return Equal(Column(id, value.Type()), Const(value))
}

// And joins terms into one conjunction. Nested conjunctions are flattened and
// nil terms are skipped.
func And(terms ...Expr) *Conjunction {
	out := &Conjunction{Terms: make([]Expr, 0, len(terms))}
	for _, t := range terms {
		switch v := t.(type) {
		case nil:
		case *Conjunction:
			out.Terms = append(out.Terms, v.Terms...)
		default:
			out.Terms = append(out.Terms, t)
		}
	}
	return out
}
