package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/retailtwin/internal/action"
	"github.com/gyaneshwarpardhi/retailtwin/internal/alert"
	"github.com/gyaneshwarpardhi/retailtwin/internal/config"
	"github.com/gyaneshwarpardhi/retailtwin/internal/engine"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
	"github.com/gyaneshwarpardhi/retailtwin/internal/metrics"
	"github.com/gyaneshwarpardhi/retailtwin/internal/stream"
)

// Deps are the components the HTTP surface reads and drives.
type Deps struct {
	Stream   *stream.Stream
	Engine   *engine.Engine
	Alerts   *alert.Store
	Loader   *config.Loader
	Registry *action.Registry
	Logger   *slog.Logger

	RateLimitRPS   float64 // 0 disables limiting
	RateLimitBurst int
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	Deps
	mux *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &Handler{Deps: d, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/events", h.listEvents)
	h.mux.HandleFunc("GET /v1/filter", h.getFilter)
	h.mux.HandleFunc("PUT /v1/filter", h.putFilter)
	h.mux.HandleFunc("GET /v1/stats", h.getStats)
	h.mux.HandleFunc("GET /v1/state", h.getState)
	h.mux.HandleFunc("POST /v1/stream/{op}", h.control)
	h.mux.HandleFunc("GET /v1/stream/updates", h.streamUpdates)
	h.mux.HandleFunc("GET /v1/alerts", h.listAlerts)
	h.mux.HandleFunc("DELETE /v1/alerts", h.clearAlerts)
	h.mux.HandleFunc("GET /v1/rules", h.listRules)
	h.mux.HandleFunc("POST /v1/rules/reload", h.reloadRules)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	var next http.Handler = h.mux
	if d.RateLimitRPS > 0 {
		next = newRateLimiter(d.RateLimitRPS, d.RateLimitBurst).middleware(next)
	}
	return requestIDMiddleware(loggingMiddleware(d.Logger, next))
}

type filterBody struct {
	Category   string `json:"category"`
	Query      string `json:"query"`
	Expression string `json:"expression,omitempty"`
}

func viewBody(v stream.View) filterBody {
	return filterBody{Category: v.Category(), Query: v.Query(), Expression: v.Expression()}
}

type eventsResponse struct {
	Events   []*event.Event        `json:"events"`
	Count    int                   `json:"count"`
	Retained int                   `json:"retained"`
	Summary  stream.SeverityCounts `json:"summary"`
	Filter   filterBody            `json:"filter"`
}

// GET /v1/events — filtered view. Query params category, q and expr select
// an ad hoc view; without them the stored filter applies.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := h.Stream.Filter()
	if q.Has("category") || q.Has("q") || q.Has("expr") {
		v, err := stream.NewView(q.Get("category"), q.Get("q"))
		if err == nil {
			v, err = v.WithExpression(q.Get("expr"))
		}
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		view = v
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	snap := h.Stream.Snapshot()
	events := view.Apply(snap.Events)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Events:   events,
		Count:    len(events),
		Retained: len(snap.Events),
		Summary:  stream.Summarize(events),
		Filter:   viewBody(view),
	})
}

// GET /v1/filter — the stored filter.
func (h *Handler) getFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewBody(h.Stream.Filter()))
}

// PUT /v1/filter — replace the stored filter. Nothing changes on error.
func (h *Handler) putFilter(w http.ResponseWriter, r *http.Request) {
	var body filterBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	v, err := stream.NewView(body.Category, body.Query)
	if err == nil {
		v, err = v.WithExpression(body.Expression)
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.Stream.SetView(v)
	writeJSON(w, http.StatusOK, viewBody(v))
}

// GET /v1/stats — rolling stats and lifecycle state.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	snap := h.Stream.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":    snap.Stats,
		"state":    snap.State,
		"paused":   snap.Paused,
		"retained": len(snap.Events),
		"summary":  stream.Summarize(snap.Events),
	})
}

// GET /v1/state — full snapshot: events newest first, stats, state.
func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stream.Snapshot())
}

// POST /v1/stream/{op} — lifecycle control.
func (h *Handler) control(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	switch op {
	case "start":
		h.Stream.Start()
	case "pause":
		h.Stream.Pause()
	case "resume":
		h.Stream.Resume()
	case "clear":
		h.Stream.Clear()
	case "stop":
		h.Stream.Stop()
	default:
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown stream operation %q", op))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"op":    op,
		"state": h.Stream.State(),
	})
}

// GET /v1/alerts — newest first. Optional limit and since (RFC 3339).
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	var alerts []alert.Alert
	if s := r.URL.Query().Get("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid since: %s", err))
			return
		}
		alerts = h.Alerts.Since(ts)
		if limit > 0 && len(alerts) > limit {
			alerts = alerts[:limit]
		}
	} else {
		alerts = h.Alerts.List(limit)
	}
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// DELETE /v1/alerts — drop every stored alert.
func (h *Handler) clearAlerts(w http.ResponseWriter, r *http.Request) {
	h.Alerts.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/rules — list loaded rules.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	cfg := h.Loader.Config()
	rules := cfg.Rules
	if rules == nil {
		rules = []config.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":      cfg.Version,
		"rules":        rules,
		"action_types": h.Registry.Types(),
	})
}

// POST /v1/rules/reload — hot-reload rules from disk.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Loader.Reload()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.Engine.ApplyRules(cfg.Rules); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":    true,
		"rules_count": len(cfg.Rules),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the engine queue is >80% full or the stream stopped.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.Engine.QueueUtilization()
	metrics.EngineQueueUtilization.Set(util)
	state := h.Stream.State()
	status, code := "ready", http.StatusOK
	switch {
	case state == stream.Stopped:
		status, code = "stopped", http.StatusServiceUnavailable
	case util > 0.8:
		status, code = "overloaded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":            status,
		"stream_state":      state,
		"queue_utilization": util,
	})
}

// parseLimit reads the optional limit query parameter, writing a 400 on error.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", s))
		return 0, false
	}
	return n, true
}
