// Package notify implements the "log" action: one structured log line per match.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/retailtwin/internal/action"
)

const Type = "log"

type Action struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Action {
	if logger == nil {
		logger = slog.Default()
	}
	return &Action{logger: logger}
}

func (a *Action) Type() string { return Type }

func (a *Action) Validate(params map[string]interface{}) error {
	_, err := level(params)
	return err
}

func (a *Action) Execute(ctx context.Context, inv action.Invocation) (*action.Result, error) {
	res := &action.Result{RuleID: inv.RuleID, ActionID: inv.ActionID, Type: Type}
	lvl, err := level(inv.Params)
	if err != nil {
		res.Message = err.Error()
		return res, err
	}
	msg, _ := inv.Params["message"].(string)
	if msg == "" {
		msg = "rule matched"
	}
	a.logger.Log(ctx, lvl, msg,
		"rule_id", inv.RuleID,
		"action_id", inv.ActionID,
		"event_id", inv.Event.ID,
		"category", inv.Event.Category,
		"severity", inv.Event.Severity,
		"event_message", inv.Event.Message,
	)
	res.Success = true
	res.Message = fmt.Sprintf("logged at %s", lvl)
	return res, nil
}

func level(params map[string]interface{}) (slog.Level, error) {
	raw, _ := params["level"].(string)
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("%s: invalid level %q", Type, raw)
	}
	return lvl, nil
}
