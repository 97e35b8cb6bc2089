package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/retailtwin/internal/action"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

func TestExecute_WritesLogLine(t *testing.T) {
	var buf bytes.Buffer
	a := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	res, err := a.Execute(context.Background(), action.Invocation{
		RuleID:   "system_errors",
		ActionID: "log_system_error",
		Params:   map[string]interface{}{"level": "warn", "message": "system error seen"},
		Event:    &event.Event{ID: "01HZ", Category: event.System, Severity: event.SeverityError},
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, `msg="system error seen"`)
	require.Contains(t, out, "rule_id=system_errors")
	require.Contains(t, out, "event_id=01HZ")
}

func TestValidate(t *testing.T) {
	a := New(nil)
	require.NoError(t, a.Validate(nil))
	require.NoError(t, a.Validate(map[string]interface{}{"level": "debug"}))
	require.Error(t, a.Validate(map[string]interface{}{"level": "loud"}))
}
