package rules

import (
	"fmt"

	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// Match records an action reached during traversal.
type Match struct {
	RuleID string
	Node   *ActionNode
}

// Result is the outcome of evaluating one event against a Graph.
type Result struct {
	Matches      []Match
	RulesMatched []string
	Errors       []error
}

// Evaluate runs DFS over the graph for ev. A nil graph matches nothing. A branch whose condition errors is
// skipped and the error recorded; other branches still run.
func Evaluate(g *Graph, ev *event.Event) Result {
	var res Result
	if g == nil {
		return res
	}
	for _, root := range g.Roots() {
		ok, err := root.Evaluate(ev)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("rule %s: %w", root.ID(), err))
			continue
		}
		if !ok {
			continue
		}
		actions := dfs(g, ev, root.ID(), root.ID(), &res)
		if len(actions) > 0 {
			res.RulesMatched = append(res.RulesMatched, root.ID())
			res.Matches = append(res.Matches, actions...)
		}
	}
	return res
}

// dfs returns all ActionNodes reachable from parentID whose ancestor chain passed.
func dfs(g *Graph, ev *event.Event, parentID, ruleID string, res *Result) []Match {
	var out []Match
	for _, child := range g.Children(parentID) {
		ok, err := child.Evaluate(ev)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("node %s: %w", child.ID(), err))
			continue
		}
		if !ok {
			continue
		}
		if an, isAction := child.(*ActionNode); isAction {
			out = append(out, Match{RuleID: ruleID, Node: an})
			continue
		}
		out = append(out, dfs(g, ev, child.ID(), ruleID, res)...)
	}
	return out
}
