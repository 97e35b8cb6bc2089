package condition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFieldNotFound is returned when an expression references a field the
// resolver does not know.
var ErrFieldNotFound = errors.New("field not found")

// Resolver provides field values for expression evaluation.
type Resolver interface {
	Resolve(path []string) (interface{}, bool)
}

// Evaluate walks the AST and returns true/false or an error.
func Evaluate(expr Expr, r Resolver) (bool, error) {
	switch e := expr.(type) {
	case *BinaryExpr:
		return evalBinary(e, r)
	case *NotExpr:
		v, err := Evaluate(e.Expr, r)
		if err != nil {
			return false, err
		}
		return !v, nil
	case *ComparisonExpr:
		return evalComparison(e, r)
	default:
		return false, fmt.Errorf("unknown expr type %T", expr)
	}
}

func evalBinary(e *BinaryExpr, r Resolver) (bool, error) {
	left, err := Evaluate(e.Left, r)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(e.Op) {
	case "AND":
		if !left {
			return false, nil
		}
		return Evaluate(e.Right, r)
	case "OR":
		if left {
			return true, nil
		}
		return Evaluate(e.Right, r)
	default:
		return false, fmt.Errorf("unknown binary op %q", e.Op)
	}
}

func evalComparison(e *ComparisonExpr, r Resolver) (bool, error) {
	left, err := resolveOperand(e.Left, r)
	if err != nil {
		return false, err
	}
	right, err := resolveOperand(e.Right, r)
	if err != nil {
		return false, err
	}
	if e.Op == OpMatches && e.re != nil {
		s, ok := left.(string)
		if !ok {
			return false, fmt.Errorf("matches: left operand must be a string, got %T", left)
		}
		return e.re.MatchString(s), nil
	}
	return compare(e.Op, left, right)
}

func resolveOperand(op Operand, r Resolver) (interface{}, error) {
	switch o := op.(type) {
	case *LiteralOperand:
		return o.Value, nil
	case *ListOperand:
		return o.Values, nil
	case *FieldOperand:
		val, ok := r.Resolve(o.Path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, o)
		}
		return val, nil
	default:
		return nil, fmt.Errorf("unknown operand type %T", op)
	}
}
