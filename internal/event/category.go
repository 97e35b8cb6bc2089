package event

import (
	"fmt"
	"strings"
)

// Category is the fixed classification of an event.
type Category string

const (
	Sales       Category = "Sales"
	Inventory   Category = "Inventory"
	Customer    Category = "Customer"
	SupplyChain Category = "SupplyChain"
	Payment     Category = "Payment"
	Promotion   Category = "Promotion"
	Staff       Category = "Staff"
	System      Category = "System"
)

var categories = []Category{Sales, Inventory, Customer, SupplyChain, Payment, Promotion, Staff, System}

// Categories returns the full enumeration in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Label is the human-facing name of the category.
func (c Category) Label() string {
	switch c {
	case SupplyChain:
		return "Supply Chain"
	case Promotion:
		return "Promotions"
	}
	return string(c)
}

// categoryAliases maps lower-cased names, labels and short keys to categories.
var categoryAliases = func() map[string]Category {
	m := make(map[string]Category)
	for _, c := range categories {
		m[strings.ToLower(string(c))] = c
		m[strings.ToLower(c.Label())] = c
	}
	m["supply"] = SupplyChain
	m["supply_chain"] = SupplyChain
	m["promo"] = Promotion
	return m
}()

// ParseCategory resolves a category by name, label or short key, ignoring case.
func ParseCategory(s string) (Category, error) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Severity is the outcome level of an event.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

var severities = []Severity{SeveritySuccess, SeverityWarning, SeverityError, SeverityInfo}

// Severities returns the full enumeration.
func Severities() []Severity {
	out := make([]Severity, len(severities))
	copy(out, severities)
	return out
}

// ParseSeverity resolves a severity name, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	v := Severity(strings.ToLower(strings.TrimSpace(s)))
	for _, sv := range severities {
		if sv == v {
			return sv, nil
		}
	}
	return "", fmt.Errorf("unknown severity %q", s)
}
