package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/retailtwin/internal/condition"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// Validate checks the config for:
//   - Out of range stream, engine, server and sink settings
//   - Duplicate IDs across rules, conditions, and actions
//   - Unknown categories or severities and unparsable expressions
//   - Required fields
//
// Every problem is reported, not just the first.
func Validate(cfg *Config) error {
	var errs []string
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if cfg.Version == "" {
		add("version is required")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		add("log.format must be text or json, got %q", cfg.Log.Format)
	}

	if cfg.Server.Addr == "" {
		add("server.addr is required")
	}
	if cfg.Server.RateLimitRPS < 0 {
		add("server.rate_limit_rps must not be negative")
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst < 1 {
		add("server.rate_limit_burst must be at least 1 when rate limiting is on")
	}

	st := cfg.Stream
	if st.MaxRetained <= 0 {
		add("stream.max_retained must be greater than 0, got %d", st.MaxRetained)
	}
	if st.TickMinMs <= 0 {
		add("stream.tick_min_ms must be greater than 0, got %d", st.TickMinMs)
	}
	if st.TickMaxMs < st.TickMinMs {
		add("stream.tick_max_ms (%d) must not be less than tick_min_ms (%d)", st.TickMaxMs, st.TickMinMs)
	}
	if st.HourlyResetMs <= 0 {
		add("stream.hourly_reset_ms must be greater than 0, got %d", st.HourlyResetMs)
	}
	if st.DispatchQueue <= 0 {
		add("stream.dispatch_queue must be greater than 0, got %d", st.DispatchQueue)
	}

	if cfg.Engine.EventWorkers <= 0 {
		add("engine.event_workers must be greater than 0")
	}
	if cfg.Engine.QueueDepth <= 0 {
		add("engine.queue_depth must be greater than 0")
	}
	if cfg.Alerts.Retained <= 0 {
		add("alerts.retained must be greater than 0")
	}

	if k := cfg.Sink.Kafka; k.Enabled {
		if len(k.Brokers) == 0 {
			add("sink.kafka.brokers must not be empty when enabled")
		}
		if k.Topic == "" {
			add("sink.kafka.topic is required when enabled")
		}
		if k.QueueDepth <= 0 {
			add("sink.kafka.queue_depth must be greater than 0")
		}
		if k.BatchSize <= 0 {
			add("sink.kafka.batch_size must be greater than 0")
		}
		if d, err := time.ParseDuration(k.WriteTimeout); err != nil || d <= 0 {
			add("sink.kafka.write_timeout must be a positive duration, got %q", k.WriteTimeout)
		}
	}

	ids := make(map[string]string) // id → location
	for i, r := range cfg.Rules {
		if r.ID == "" {
			add("rules[%d]: id is required", i)
			continue
		}
		loc := fmt.Sprintf("rule %s", r.ID)
		claimID(r.ID, loc, ids, &errs)
		if len(r.Categories) == 0 {
			add("rule %s: categories must not be empty", r.ID)
		}
		for _, c := range r.Categories {
			if _, err := event.ParseCategory(c); err != nil {
				add("rule %s: %v", r.ID, err)
			}
		}
		for _, s := range r.Severities {
			if _, err := event.ParseSeverity(s); err != nil {
				add("rule %s: %v", r.ID, err)
			}
		}
		validateNodeRefs(r.Children, loc, ids, &errs)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func claimID(id, loc string, ids map[string]string, errs *[]string) {
	if prev, ok := ids[id]; ok {
		*errs = append(*errs, fmt.Sprintf("duplicate id %q (first seen at %s, again at %s)", id, prev, loc))
		return
	}
	ids[id] = loc
}

func validateNodeRefs(refs []NodeRef, parent string, ids map[string]string, errs *[]string) {
	for j, ref := range refs {
		switch {
		case ref.Condition != nil && ref.Action != nil:
			*errs = append(*errs, fmt.Sprintf("%s.children[%d]: only one of condition/action may be set", parent, j))
		case ref.Condition == nil && ref.Action == nil:
			*errs = append(*errs, fmt.Sprintf("%s.children[%d]: one of condition/action must be set", parent, j))
		case ref.Condition != nil:
			c := ref.Condition
			if c.ID == "" {
				*errs = append(*errs, fmt.Sprintf("%s.children[%d].condition: id is required", parent, j))
				continue
			}
			loc := fmt.Sprintf("condition %s", c.ID)
			claimID(c.ID, loc, ids, errs)
			if c.Expression == "" {
				*errs = append(*errs, fmt.Sprintf("condition %s: expression is required", c.ID))
			} else if _, err := condition.Compile(c.Expression); err != nil {
				*errs = append(*errs, fmt.Sprintf("condition %s: %v", c.ID, err))
			}
			validateNodeRefs(c.Children, loc, ids, errs)
		case ref.Action != nil:
			a := ref.Action
			if a.ID == "" {
				*errs = append(*errs, fmt.Sprintf("%s.children[%d].action: id is required", parent, j))
				continue
			}
			claimID(a.ID, fmt.Sprintf("action %s", a.ID), ids, errs)
			if a.Type == "" {
				*errs = append(*errs, fmt.Sprintf("action %s: type is required", a.ID))
			}
		}
	}
}
