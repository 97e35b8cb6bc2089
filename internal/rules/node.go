package rules

import (
	"strings"

	"github.com/gyaneshwarpardhi/retailtwin/internal/condition"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// NodeType discriminates the three kinds of rule nodes.
type NodeType string

const (
	NodeTypeRule      NodeType = "rule"
	NodeTypeCondition NodeType = "condition"
	NodeTypeAction    NodeType = "action"
)

// Node is the common interface for all graph nodes.
type Node interface {
	ID() string
	Type() NodeType
	Evaluate(ev *event.Event) (bool, error)
}

// RuleNode is the entry point of a rule. It passes when the event's category,
// severity and source are all accepted.
type RuleNode struct {
	id         string
	categories map[event.Category]struct{}
	severities map[event.Severity]struct{} // empty = all
	sources    map[string]struct{}         // empty = all, lower-cased
}

func NewRuleNode(id string, categories []event.Category, severities []event.Severity, sources []string) *RuleNode {
	n := &RuleNode{
		id:         id,
		categories: make(map[event.Category]struct{}, len(categories)),
		severities: make(map[event.Severity]struct{}, len(severities)),
		sources:    make(map[string]struct{}, len(sources)),
	}
	for _, c := range categories {
		n.categories[c] = struct{}{}
	}
	for _, s := range severities {
		n.severities[s] = struct{}{}
	}
	for _, s := range sources {
		n.sources[strings.ToLower(s)] = struct{}{}
	}
	return n
}

func (n *RuleNode) ID() string     { return n.id }
func (n *RuleNode) Type() NodeType { return NodeTypeRule }

func (n *RuleNode) Evaluate(ev *event.Event) (bool, error) {
	if _, ok := n.categories[ev.Category]; !ok {
		return false, nil
	}
	if len(n.severities) > 0 {
		if _, ok := n.severities[ev.Severity]; !ok {
			return false, nil
		}
	}
	if len(n.sources) > 0 {
		if _, ok := n.sources[strings.ToLower(ev.Source)]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// ConditionNode holds a compiled expression.
type ConditionNode struct {
	id   string
	prog *condition.Program
}

func NewConditionNode(id string, prog *condition.Program) *ConditionNode {
	return &ConditionNode{id: id, prog: prog}
}

func (n *ConditionNode) ID() string         { return n.id }
func (n *ConditionNode) Type() NodeType     { return NodeTypeCondition }
func (n *ConditionNode) Expression() string { return n.prog.String() }

func (n *ConditionNode) Evaluate(ev *event.Event) (bool, error) {
	return n.prog.Eval(ev)
}

// ActionNode is a leaf that holds action type and params.
// Evaluate always passes; executing the action is the engine's job.
type ActionNode struct {
	id         string
	actionType string
	params     map[string]interface{}
}

func NewActionNode(id, actionType string, params map[string]interface{}) *ActionNode {
	return &ActionNode{id: id, actionType: actionType, params: params}
}

func (n *ActionNode) ID() string                     { return n.id }
func (n *ActionNode) Type() NodeType                 { return NodeTypeAction }
func (n *ActionNode) ActionType() string             { return n.actionType }
func (n *ActionNode) Params() map[string]interface{} { return n.params }

func (n *ActionNode) Evaluate(*event.Event) (bool, error) { return true, nil }
