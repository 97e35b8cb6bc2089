package event

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Event is one simulated retail-operations record. It is never mutated after
// the generator hands it out.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Category  Category               `json:"category"`
	Source    string                 `json:"source"`
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details"`
}

// LineItem is a single product line of a sale.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Subtotal returns Price * Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

var requiredKeys = map[Category][]string{
	Sales:       {"customer", "items", "total", "payment", "staff", "location"},
	Inventory:   {"product", "sku", "quantity", "threshold", "action", "warehouse"},
	Customer:    {"customer", "loyaltyTier", "action", "value", "staff"},
	SupplyChain: {"trackingId", "carrier", "items", "status", "eta"},
	Payment:     {"order", "amount", "method", "last4", "processor"},
	Promotion:   {"code", "discount", "product", "customer", "savings"},
	Staff:       {"staff", "role", "hours", "sales", "performance"},
	System:      {"system", "status", "action"},
}

// RequiredDetailKeys returns the detail keys every event of category c carries.
func RequiredDetailKeys(c Category) []string {
	keys := requiredKeys[c]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// CheckShape verifies that Details holds exactly the keys its category allows.
func (e *Event) CheckShape() error {
	keys, ok := requiredKeys[e.Category]
	if !ok {
		return fmt.Errorf("event %s: unknown category %q", e.ID, e.Category)
	}
	allowed := make(map[string]struct{}, len(keys))
	var missing []string
	for _, k := range keys {
		allowed[k] = struct{}{}
		if _, ok := e.Details[k]; !ok {
			missing = append(missing, k)
		}
	}
	var foreign []string
	for k := range e.Details {
		if _, ok := allowed[k]; !ok {
			foreign = append(foreign, k)
		}
	}
	if len(missing) == 0 && len(foreign) == 0 {
		return nil
	}
	sort.Strings(foreign)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(foreign) > 0 {
		parts = append(parts, "foreign "+strings.Join(foreign, ", "))
	}
	return fmt.Errorf("event %s (%s): details %s", e.ID, e.Category, strings.Join(parts, "; "))
}

// Resolve looks up a dot-separated field path, e.g. ["details", "quantity"].
// It lets expressions address events directly.
func (e *Event) Resolve(path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	if len(path) > 1 && path[0] != "details" {
		return nil, false
	}
	switch path[0] {
	case "id":
		return e.ID, true
	case "category":
		return string(e.Category), true
	case "severity":
		return string(e.Severity), true
	case "source":
		return e.Source, true
	case "message":
		return e.Message, true
	case "timestamp":
		return e.Timestamp, true
	case "details":
		if e.Details == nil || len(path) < 2 {
			return nil, false
		}
		return resolveMap(e.Details, path[1:])
	}
	return nil, false
}

func resolveMap(m map[string]interface{}, path []string) (interface{}, bool) {
	val, ok := m[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return val, true
	}
	sub, ok := val.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return resolveMap(sub, path[1:])
}

// Texts returns every searchable string of the event: message, source and all
// string values inside Details, line item names included.
func (e *Event) Texts() []string {
	out := []string{e.Message, e.Source}
	for _, v := range e.Details {
		out = appendTexts(out, v)
	}
	return out
}

func appendTexts(out []string, v interface{}) []string {
	switch t := v.(type) {
	case string:
		out = append(out, t)
	case []string:
		out = append(out, t...)
	case []LineItem:
		for _, li := range t {
			out = append(out, li.Name)
		}
	case map[string]interface{}:
		for _, sub := range t {
			out = appendTexts(out, sub)
		}
	case []interface{}:
		for _, sub := range t {
			out = appendTexts(out, sub)
		}
	}
	return out
}
