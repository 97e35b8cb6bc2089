// Package condition implements the small boolean expression language used by
// event filters and alert rules, e.g.
//
//	category == "Inventory" AND details.quantity < details.threshold
//	details.customer contains "garcia" OR NOT severity in ["info", "success"]
package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Program is a compiled expression. It is immutable and safe for concurrent use.
type Program struct {
	src  string
	expr Expr
}

// Compile parses src into a Program.
func Compile(src string) (*Program, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{src: src, expr: expr}, nil
}

// Eval evaluates the program against r.
func (p *Program) Eval(r Resolver) (bool, error) {
	return Evaluate(p.expr, r)
}

// String returns the source the program was compiled from.
func (p *Program) String() string { return p.src }

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, kw)
}

// Parse parses an expression string into an AST.
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", t.val, t.pos)
	}
	return node, nil
}

// or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.consume()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

// and_expr = not_expr ( "AND" not_expr )*
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.consume()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

// not_expr = "NOT" not_expr | "(" or_expr ")" | comparison
func (p *parser) parseNot() (Expr, error) {
	if p.isKeyword("NOT") {
		p.consume()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.consume()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.peek(); t.kind != tokRParen {
			return nil, fmt.Errorf("expected \")\" at position %d, got %q", t.pos, t.val)
		}
		p.consume()
		return inner, nil
	}
	return p.parseComparison()
}

// comparison = operand operator operand
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	var op Operator
	switch {
	case t.kind == tokOp:
		op = Operator(t.val)
	case p.isKeyword("contains"):
		op = OpContains
	case p.isKeyword("matches"):
		op = OpMatches
	case p.isKeyword("in"):
		op = OpIn
	default:
		return nil, fmt.Errorf("expected comparison operator at position %d, got %q", t.pos, t.val)
	}
	p.consume()

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	cmp := &ComparisonExpr{Left: left, Op: op, Right: right}

	switch op {
	case OpIn:
		if _, ok := right.(*ListOperand); !ok {
			return nil, fmt.Errorf("operator in requires a [list] on the right")
		}
	case OpMatches:
		if lit, ok := right.(*LiteralOperand); ok {
			pattern, ok := lit.Value.(string)
			if !ok {
				return nil, fmt.Errorf("matches: pattern must be a string")
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("matches: invalid regex %q: %w", pattern, err)
			}
			cmp.re = re
		}
	}
	if _, ok := left.(*ListOperand); ok {
		return nil, fmt.Errorf("a list may only appear on the right of in")
	}
	return cmp, nil
}

// operand = field_path | literal | "[" literal ("," literal)* "]"
func (p *parser) parseOperand() (Operand, error) {
	t := p.peek()
	switch t.kind {
	case tokWord:
		p.consume()
		return &FieldOperand{Path: strings.Split(t.val, ".")}, nil
	case tokLBracket:
		return p.parseList()
	default:
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &LiteralOperand{Value: v}, nil
	}
}

func (p *parser) parseList() (Operand, error) {
	p.consume() // [
	list := &ListOperand{}
	if p.peek().kind == tokRBracket {
		p.consume()
		return list, nil
	}
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, v)
		t := p.consume()
		switch t.kind {
		case tokComma:
			continue
		case tokRBracket:
			return list, nil
		default:
			return nil, fmt.Errorf("expected \",\" or \"]\" at position %d, got %q", t.pos, t.val)
		}
	}
}

func (p *parser) parseLiteral() (interface{}, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.consume()
		return t.val, nil
	case tokNumber:
		p.consume()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", t.val, t.pos)
		}
		return f, nil
	case tokBool:
		p.consume()
		return t.val == "true", nil
	default:
		return nil, fmt.Errorf("expected operand at position %d, got %q", t.pos, t.val)
	}
}
