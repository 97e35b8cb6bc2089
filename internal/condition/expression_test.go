package condition

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// mapResolver implements Resolver over nested maps for tests.
type mapResolver map[string]interface{}

func (m mapResolver) Resolve(path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	v, ok := m[path[0]]
	if !ok || len(path) == 1 {
		return v, ok
	}
	sub, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return mapResolver(sub).Resolve(path[1:])
}

func fields(kv ...interface{}) mapResolver {
	m := make(mapResolver)
	for i := 0; i < len(kv)-1; i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

type evalCase struct {
	name    string
	expr    string
	ctx     Resolver
	want    bool
	wantErr bool
}

func TestEvaluate(t *testing.T) {
	inventory := map[string]interface{}{"quantity": 3, "threshold": 10, "product": "Wireless Earbuds"}

	cases := []evalCase{
		// Numeric comparisons
		{name: "gt true", expr: "amount > 100", ctx: fields("amount", 150), want: true},
		{name: "gt false", expr: "amount > 100", ctx: fields("amount", 50), want: false},
		{name: "gte equal", expr: "amount >= 100", ctx: fields("amount", float64(100)), want: true},
		{name: "lt decimal", expr: "total < 99.5", ctx: fields("total", decimal.RequireFromString("99.49")), want: true},
		{name: "negative literal", expr: "delta > -5", ctx: fields("delta", -2), want: true},
		{
			name: "field vs field",
			expr: "details.quantity < details.threshold",
			ctx:  fields("details", inventory),
			want: true,
		},
		// String equality is case-insensitive
		{name: "eq string", expr: `category == "inventory"`, ctx: fields("category", "Inventory"), want: true},
		{name: "eq string false", expr: `category == "Sales"`, ctx: fields("category", "Inventory"), want: false},
		{name: "neq string", expr: `category != "Sales"`, ctx: fields("category", "Inventory"), want: true},
		{name: "single quotes", expr: `source == 'POS System'`, ctx: fields("source", "POS System"), want: true},
		// Boolean
		{name: "bool eq", expr: "online == true", ctx: fields("online", true), want: true},
		{name: "bool vs string", expr: `online == "true"`, ctx: fields("online", true), want: false},
		// AND / OR / NOT
		{
			name: "AND both true",
			expr: `category == "Inventory" AND details.quantity < 5`,
			ctx:  fields("category", "Inventory", "details", inventory),
			want: true,
		},
		{
			name: "AND short-circuits missing field",
			expr: `category == "Sales" AND details.total > 100`,
			ctx:  fields("category", "Inventory", "details", inventory),
			want: false,
		},
		{
			name: "OR first true",
			expr: `severity == "error" OR severity == "warning"`,
			ctx:  fields("severity", "error"),
			want: true,
		},
		{name: "NOT", expr: `NOT amount > 1000`, ctx: fields("amount", 500), want: true},
		{
			name: "parentheses",
			expr: `(severity == "error" OR severity == "warning") AND category == "System"`,
			ctx:  fields("severity", "warning", "category", "Sales"),
			want: false,
		},
		// contains / matches / in
		{name: "contains ignores case", expr: `message contains "EARBUDS"`, ctx: fields("message", "Inventory low for Wireless Earbuds"), want: true},
		{name: "contains false", expr: `message contains "vacuum"`, ctx: fields("message", "Inventory low for Wireless Earbuds"), want: false},
		{name: "contains list", expr: `tags contains "vip"`, ctx: fields("tags", []string{"new", "VIP"}), want: true},
		{name: "matches", expr: `details.sku matches "^SKU-1\\d{4}$"`, ctx: fields("details", map[string]interface{}{"sku": "SKU-12345"}), want: true},
		{name: "matches false", expr: `details.sku matches "^SKU-9"`, ctx: fields("details", map[string]interface{}{"sku": "SKU-12345"}), want: false},
		{name: "in", expr: `severity in ["error", "warning"]`, ctx: fields("severity", "warning"), want: true},
		{name: "not in", expr: `NOT severity in ["error", "warning"]`, ctx: fields("severity", "info"), want: true},
		{name: "in numbers", expr: `code in [1, 2, 3]`, ctx: fields("code", 2), want: true},
		{name: "empty list", expr: `code in []`, ctx: fields("code", 2), want: false},
		// Error cases
		{name: "unknown field", expr: "missing > 10", ctx: fields("amount", 100), wantErr: true},
		{name: "non-numeric compare", expr: "name > 10", ctx: fields("name", "Sarah Lee"), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := Compile(tc.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tc.expr, err)
			}
			got, err := prog.Eval(tc.ctx)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil (result=%v)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Eval error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvaluate_MissingFieldIsTyped(t *testing.T) {
	prog, err := Compile(`details.quantity < 5`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = prog.Eval(fields("details", map[string]interface{}{}))
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		`"unterminated`,
		`amount 1000`,
		``,
		`   `,
		`amount = 5`,
		`(amount > 5`,
		`severity in "error"`,
		`["a"] in ["a"]`,
		`sku matches "[unclosed"`,
		`amount > 5 extra`,
		`amount > #`,
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			if _, err := Parse(expr); err == nil {
				t.Errorf("expected parse error for %q, got nil", expr)
			}
		})
	}
}

func TestProgram_String(t *testing.T) {
	src := `category == "Sales"`
	prog, err := Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	if prog.String() != src {
		t.Errorf("String() = %q, want %q", prog.String(), src)
	}
}
