package rules

import (
	"fmt"

	"github.com/gyaneshwarpardhi/retailtwin/internal/condition"
	"github.com/gyaneshwarpardhi/retailtwin/internal/config"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// ParamValidator checks action params at build time. action.Registry
// implements it.
type ParamValidator interface {
	ValidateParams(actionType string, params map[string]interface{}) error
}

// Build constructs a Graph from validated rule configs. Every expression is
// compiled here; evaluation never parses. pv may be nil.
func Build(rules []config.Rule, pv ParamValidator) (*Graph, error) {
	g := NewGraph()
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		cats := make([]event.Category, 0, len(r.Categories))
		for _, s := range r.Categories {
			c, err := event.ParseCategory(s)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.ID, err)
			}
			cats = append(cats, c)
		}
		sevs := make([]event.Severity, 0, len(r.Severities))
		for _, s := range r.Severities {
			sv, err := event.ParseSeverity(s)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", r.ID, err)
			}
			sevs = append(sevs, sv)
		}
		g.AddNode(NewRuleNode(r.ID, cats, sevs, r.Sources))
		if err := buildChildren(g, r.ID, r.Children, pv); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	return g, nil
}

func buildChildren(g *Graph, parentID string, refs []config.NodeRef, pv ParamValidator) error {
	for _, ref := range refs {
		switch {
		case ref.Condition != nil:
			c := ref.Condition
			prog, err := condition.Compile(c.Expression)
			if err != nil {
				return fmt.Errorf("condition %s: parse %q: %w", c.ID, c.Expression, err)
			}
			cn := NewConditionNode(c.ID, prog)
			g.AddNode(cn)
			g.AddEdge(parentID, cn)
			if err := buildChildren(g, c.ID, c.Children, pv); err != nil {
				return fmt.Errorf("condition %s: %w", c.ID, err)
			}
		case ref.Action != nil:
			a := ref.Action
			if pv != nil {
				if err := pv.ValidateParams(a.Type, a.Params); err != nil {
					return fmt.Errorf("action %s: %w", a.ID, err)
				}
			}
			an := NewActionNode(a.ID, a.Type, a.Params)
			g.AddNode(an)
			g.AddEdge(parentID, an)
		}
	}
	return nil
}
