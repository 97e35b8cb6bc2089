package stream

import (
	"strings"

	"github.com/gyaneshwarpardhi/retailtwin/internal/condition"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// CategoryAll selects every category.
const CategoryAll = "all"

// View is a read-only projection of the retained events: a category filter,
// a free-text query and an optional condition expression, all ANDed.
// The zero value matches everything.
type View struct {
	category event.Category // empty = all
	query    string         // lower-cased
	rawQuery string
	prog     *condition.Program
}

// NewView builds a view. category is "all", empty, or anything
// event.ParseCategory accepts.
func NewView(category, query string) (View, error) {
	v := View{rawQuery: query, query: strings.ToLower(query)}
	if category != "" && !strings.EqualFold(category, CategoryAll) {
		c, err := event.ParseCategory(category)
		if err != nil {
			return View{}, err
		}
		v.category = c
	}
	return v, nil
}

// WithExpression returns a copy of v that additionally requires expr to hold.
// An empty expr removes the expression filter.
func (v View) WithExpression(expr string) (View, error) {
	if strings.TrimSpace(expr) == "" {
		v.prog = nil
		return v, nil
	}
	prog, err := condition.Compile(expr)
	if err != nil {
		return View{}, err
	}
	v.prog = prog
	return v, nil
}

// Category returns the category name, or "all".
func (v View) Category() string {
	if v.category == "" {
		return CategoryAll
	}
	return string(v.category)
}

func (v View) Query() string { return v.rawQuery }

// Expression returns the expression source, empty when unset.
func (v View) Expression() string {
	if v.prog == nil {
		return ""
	}
	return v.prog.String()
}

// Match reports whether ev passes every filter of the view. An expression
// that cannot be evaluated for ev counts as no match.
func (v View) Match(ev *event.Event) bool {
	if v.category != "" && ev.Category != v.category {
		return false
	}
	if v.query != "" && !matchesText(ev, v.query) {
		return false
	}
	if v.prog != nil {
		ok, err := v.prog.Eval(ev)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// Apply returns the matching subsequence of events in their original order.
// The result is never nil.
func (v View) Apply(events []*event.Event) []*event.Event {
	out := make([]*event.Event, 0, len(events))
	for _, ev := range events {
		if v.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

func matchesText(ev *event.Event, lowered string) bool {
	for _, s := range ev.Texts() {
		if strings.Contains(strings.ToLower(s), lowered) {
			return true
		}
	}
	return false
}
