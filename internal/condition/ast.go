package condition

import (
	"regexp"
	"strings"
)

// Expr is the common interface for all AST nodes.
type Expr interface {
	exprNode()
}

// BinaryExpr represents AND / OR.
type BinaryExpr struct {
	Op    string // "AND" | "OR"
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// NotExpr represents NOT <expr>.
type NotExpr struct {
	Expr Expr
}

func (*NotExpr) exprNode() {}

// ComparisonExpr represents <operand> <operator> <operand>.
type ComparisonExpr struct {
	Left  Operand
	Op    Operator
	Right Operand

	re *regexp.Regexp // set for OpMatches with a literal pattern
}

func (*ComparisonExpr) exprNode() {}

// Operand is a literal, a field path or a literal list.
type Operand interface {
	operandNode()
}

// LiteralOperand holds a pre-parsed constant.
type LiteralOperand struct {
	Value interface{}
}

func (*LiteralOperand) operandNode() {}

// FieldOperand holds a dot-separated path like "details.quantity".
type FieldOperand struct {
	Path []string
}

func (*FieldOperand) operandNode() {}

func (f *FieldOperand) String() string { return strings.Join(f.Path, ".") }

// ListOperand holds the literals of `[a, b, c]`, used with `in`.
type ListOperand struct {
	Values []interface{}
}

func (*ListOperand) operandNode() {}
