package action

import (
	"context"

	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// Result holds the outcome of executing a single action.
type Result struct {
	RuleID   string `json:"rule_id"`
	ActionID string `json:"action_id"`
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// Invocation is everything an executor gets for one matched action.
type Invocation struct {
	RuleID   string
	ActionID string
	Params   map[string]interface{}
	Event    *event.Event
}

// Executor is the interface all action implementations must satisfy.
type Executor interface {
	// Type returns the string key this executor is registered under.
	Type() string
	// Execute runs the action and returns a result.
	Execute(ctx context.Context, inv Invocation) (*Result, error)
	// Validate checks params when the rule graph is built.
	Validate(params map[string]interface{}) error
}
