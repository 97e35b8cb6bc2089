// Package raise implements the "raise_alert" action.
package raise

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/retailtwin/internal/action"
	"github.com/gyaneshwarpardhi/retailtwin/internal/alert"
	"github.com/gyaneshwarpardhi/retailtwin/internal/metrics"
)

// Type is the registry key of this executor.
const Type = "raise_alert"

// Action records an alert in the store. Params:
//   - title: required
//   - level: info | warning | critical (default warning)
//   - cooldown: duration string; repeats of the same rule/action inside it are suppressed
type Action struct {
	store    *alert.Store
	cooldown *alert.Cooldown
	now      func() time.Time
}

func New(store *alert.Store) *Action {
	return &Action{store: store, cooldown: alert.NewCooldown(), now: time.Now}
}

func (a *Action) Type() string { return Type }

func (a *Action) Validate(params map[string]interface{}) error {
	title, _ := params["title"].(string)
	if title == "" {
		return fmt.Errorf("%s: title is required", Type)
	}
	if _, err := level(params); err != nil {
		return err
	}
	if _, err := cooldown(params); err != nil {
		return err
	}
	return nil
}

func (a *Action) Execute(_ context.Context, inv action.Invocation) (*action.Result, error) {
	res := &action.Result{RuleID: inv.RuleID, ActionID: inv.ActionID, Type: Type}

	lvl, err := level(inv.Params)
	if err != nil {
		res.Message = err.Error()
		return res, err
	}
	window, err := cooldown(inv.Params)
	if err != nil {
		res.Message = err.Error()
		return res, err
	}
	if !a.cooldown.Allow(inv.RuleID+"|"+inv.ActionID, window) {
		res.Success = true
		res.Message = "suppressed by cooldown"
		return res, nil
	}

	title, _ := inv.Params["title"].(string)
	al := alert.Alert{
		ID:       uuid.New().String(),
		RuleID:   inv.RuleID,
		ActionID: inv.ActionID,
		EventID:  inv.Event.ID,
		Category: inv.Event.Category,
		Level:    lvl,
		Title:    title,
		Message:  inv.Event.Message,
		RaisedAt: a.now(),
	}
	a.store.Add(al)
	metrics.AlertsRaised.WithLabelValues(string(lvl)).Inc()

	res.Success = true
	res.Message = fmt.Sprintf("raised %s alert %q for event %s", lvl, title, inv.Event.ID)
	return res, nil
}

func level(params map[string]interface{}) (alert.Level, error) {
	raw, _ := params["level"].(string)
	switch alert.Level(raw) {
	case "":
		return alert.LevelWarning, nil
	case alert.LevelInfo, alert.LevelWarning, alert.LevelCritical:
		return alert.Level(raw), nil
	}
	return "", fmt.Errorf("%s: level must be info, warning or critical, got %q", Type, raw)
}

func cooldown(params map[string]interface{}) (time.Duration, error) {
	raw, ok := params["cooldown"]
	if !ok {
		return 0, nil
	}
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("%s: cooldown must be a duration string, got %T", Type, raw)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid cooldown %q: %w", Type, s, err)
	}
	return d, nil
}
