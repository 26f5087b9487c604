package expression

import (
	"fmt"

	"syscat/pkg/primitives"
	"syscat/pkg/tuple"
	"syscat/pkg/types"
)

// Matches evaluates expr against t. A nil expression matches everything.
// Comparisons involving NULL are false.
func Matches(expr Expr, t *tuple.Tuple) (bool, error) {
	switch e := expr.(type) {
	case nil:
		return true, nil

	case *Conjunction:
		for _, term := range e.Terms {
			ok, err := Matches(term, t)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case *Comparison:
		left, err := operand(e.Left, t)
		if err != nil {
			return false, err
		}
		right, err := operand(e.Right, t)
		if err != nil {
			return false, err
		}
		if left == nil || right == nil {
			return false, nil
		}
		return left.Compare(e.Op, right)

	default:
		return false, fmt.Errorf("expression %s is not a boolean predicate", expr)
	}
}

func operand(expr Expr, t *tuple.Tuple) (types.Field, error) {
	switch e := expr.(type) {
	case *ColumnRef:
		return t.GetField(int(e.Column))
	case *Constant:
		return e.Value, nil
	default:
		return nil, fmt.Errorf("expression %v is not a scalar operand", expr)
	}
}

// Validate checks that every column reference exists in td with the declared
// type and that compared operands agree on type.
func Validate(expr Expr, td *tuple.TupleDescription) error {
	switch e := expr.(type) {
	case nil:
		return nil

	case *Conjunction:
		for _, term := range e.Terms {
			if err := Validate(term, td); err != nil {
				return err
			}
		}
		return nil

	case *Comparison:
		if !e.Op.Valid() {
			return fmt.Errorf("unknown comparison operator %d", int(e.Op))
		}
		lt, err := operandType(e.Left, td)
		if err != nil {
			return err
		}
		rt, err := operandType(e.Right, td)
		if err != nil {
			return err
		}
		if lt != nil && rt != nil && *lt != *rt {
			return fmt.Errorf("type mismatch in %s: %s vs %s", e, *lt, *rt)
		}
		return nil

	default:
		return fmt.Errorf("expression %s is not a boolean predicate", expr)
	}
}

// operandType returns nil for a NULL constant, which is compatible with anything.
func operandType(expr Expr, td *tuple.TupleDescription) (*types.Type, error) {
	switch e := expr.(type) {
	case *ColumnRef:
		actual, err := td.TypeAtIndex(int(e.Column))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", e, err)
		}
		if actual != e.Type {
			return nil, fmt.Errorf("column %s is %s, referenced as %s", e, actual, e.Type)
		}
		return &actual, nil
	case *Constant:
		if e.Value == nil {
			return nil, nil
		}
		typ := e.Value.Type()
		return &typ, nil
	default:
		return nil, fmt.Errorf("expression %v is not a scalar operand", expr)
	}
}

// EqualityKeys collects the "column = constant" terms that must hold for expr
// to match: the comparison itself or the top-level terms of a conjunction.
// The storage engine uses them to pick an index. A column constrained twice
// is dropped from the result, since the first value alone would not be a
// sound index key.
func EqualityKeys(expr Expr) map[primitives.ColumnID]types.Field {
	keys := make(map[primitives.ColumnID]types.Field)
	conflicted := make(map[primitives.ColumnID]bool)

	var visit func(Expr)
	visit = func(e Expr) {
		switch v := e.(type) {
		case *Conjunction:
			for _, term := range v.Terms {
				visit(term)
			}
		case *Comparison:
			col, val, ok := columnConstant(v)
			if !ok {
				return
			}
			if _, seen := keys[col]; seen {
				conflicted[col] = true
				return
			}
			keys[col] = val
		}
	}
	visit(expr)

	for col := range conflicted {
		delete(keys, col)
	}
	return keys
}

func columnConstant(c *Comparison) (primitives.ColumnID, types.Field, bool) {
	if c.Op != primitives.Equals {
		return 0, nil, false
	}
	col, lok := c.Left.(*ColumnRef)
	val, rok := c.Right.(*Constant)
	if !lok || !rok {
		col, lok = c.Right.(*ColumnRef)
		val, rok = c.Left.(*Constant)
	}
	if !lok || !rok || val.Value == nil {
		return 0, nil, false
	}
	return col.Column, val.Value, true
}
