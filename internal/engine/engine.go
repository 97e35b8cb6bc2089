package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/retailtwin/internal/action"
	"github.com/gyaneshwarpardhi/retailtwin/internal/config"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
	"github.com/gyaneshwarpardhi/retailtwin/internal/metrics"
	"github.com/gyaneshwarpardhi/retailtwin/internal/pool"
	"github.com/gyaneshwarpardhi/retailtwin/internal/rules"
	"github.com/gyaneshwarpardhi/retailtwin/internal/stream"
)

// EventResult is the outcome of processing a single event.
type EventResult struct {
	EventID         string           `json:"event_id"`
	DurationMs      float64          `json:"duration_ms"`
	RulesMatched    []string         `json:"rules_matched"`
	ActionsExecuted []*action.Result `json:"actions_executed"`
	Errors          []string         `json:"errors,omitempty"`
}

// Engine evaluates events against the rule graph and runs matched actions.
type Engine struct {
	graph    atomic.Pointer[rules.Graph]
	registry *action.Registry
	events   *pool.Pool[*event.Event]
	logger   *slog.Logger
}

// New creates an Engine and starts its event workers.
func New(ctx context.Context, g *rules.Graph, reg *action.Registry, conf config.EngineConf, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{registry: reg, logger: logger}
	e.graph.Store(g)
	e.events = pool.New(ctx, conf.EventWorkers, conf.QueueDepth, func(ctx context.Context, ev *event.Event) {
		e.Process(ctx, ev)
	})
	return e
}

// SwapGraph atomically replaces the rule graph (used on hot reload).
func (e *Engine) SwapGraph(g *rules.Graph) {
	e.graph.Store(g)
}

// ApplyRules builds a graph from rs, validating action params against the
// engine's registry, and swaps it in. The current graph stays on error.
func (e *Engine) ApplyRules(rs []config.Rule) error {
	g, err := rules.Build(rs, e.registry)
	if err != nil {
		return err
	}
	e.SwapGraph(g)
	e.logger.Info("rule graph swapped", "nodes", g.NodeCount(), "rules", len(g.Roots()))
	return nil
}

// Graph returns the graph currently in use.
func (e *Engine) Graph() *rules.Graph {
	return e.graph.Load()
}

// Submit enqueues an event for background processing. Returns false if the
// queue is full.
func (e *Engine) Submit(ev *event.Event) bool {
	if !e.events.Submit(ev) {
		metrics.EngineEventsDropped.Inc()
		return false
	}
	metrics.EngineEventsEnqueued.Inc()
	return true
}

// HandleUpdate feeds stream updates into the engine. It never blocks the
// stream's dispatcher.
func (e *Engine) HandleUpdate(u stream.Update) {
	if !e.Submit(u.Event) {
		e.logger.Warn("engine queue full, event skipped", "event_id", u.Event.ID)
	}
}

// Process evaluates ev synchronously and executes every matched action.
func (e *Engine) Process(ctx context.Context, ev *event.Event) *EventResult {
	start := time.Now()
	res := rules.Evaluate(e.graph.Load(), ev)

	out := &EventResult{
		EventID:         ev.ID,
		RulesMatched:    res.RulesMatched,
		ActionsExecuted: make([]*action.Result, 0, len(res.Matches)),
	}
	for _, err := range res.Errors {
		metrics.RuleErrors.Inc()
		out.Errors = append(out.Errors, err.Error())
		e.logger.Debug("rule branch skipped", "event_id", ev.ID, "err", err)
	}
	for _, m := range res.Matches {
		out.ActionsExecuted = append(out.ActionsExecuted, e.runAction(ctx, m, ev))
	}

	elapsed := time.Since(start)
	out.DurationMs = float64(elapsed.Microseconds()) / 1000
	metrics.EngineEventsProcessed.Inc()
	metrics.EngineProcessingDuration.Observe(out.DurationMs)
	for _, id := range res.RulesMatched {
		metrics.RulesMatched.WithLabelValues(id).Inc()
	}
	return out
}

func (e *Engine) runAction(ctx context.Context, m rules.Match, ev *event.Event) *action.Result {
	actionType := m.Node.ActionType()
	failed := func(err error) *action.Result {
		metrics.ActionsExecuted.WithLabelValues(actionType, "error").Inc()
		e.logger.Warn("action failed", "rule_id", m.RuleID, "action_id", m.Node.ID(), "err", err)
		return &action.Result{
			RuleID:   m.RuleID,
			ActionID: m.Node.ID(),
			Type:     actionType,
			Message:  err.Error(),
		}
	}

	exec, err := e.registry.Get(actionType)
	if err != nil {
		return failed(err)
	}
	res, err := exec.Execute(ctx, action.Invocation{
		RuleID:   m.RuleID,
		ActionID: m.Node.ID(),
		Params:   m.Node.Params(),
		Event:    ev,
	})
	if err != nil {
		return failed(fmt.Errorf("%s: %w", actionType, err))
	}
	status := "success"
	if !res.Success {
		status = "error"
	}
	metrics.ActionsExecuted.WithLabelValues(actionType, status).Inc()
	return res
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.events.Cap() == 0 {
		return 0
	}
	return float64(e.events.Len()) / float64(e.events.Cap())
}

// Shutdown processes whatever is queued and stops the workers.
func (e *Engine) Shutdown() {
	e.events.Drain()
}
