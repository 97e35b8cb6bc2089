package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailtwin_events_generated_total",
		Help: "Total number of synthetic events generated, labelled by category.",
	}, []string{"category"})

	EventsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailtwin_events_evicted_total",
		Help: "Total number of events dropped from the retention ring on overflow.",
	})

	RetainedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retailtwin_retained_events",
		Help: "Number of events currently held in the retention ring.",
	})

	StreamState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "retailtwin_stream_state",
		Help: "1 for the current stream state, 0 otherwise.",
	}, []string{"state"})

	UpdatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailtwin_stream_updates_dropped_total",
		Help: "Total number of stream updates not delivered because the dispatch queue was full.",
	})

	EngineEventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailtwin_engine_events_enqueued_total",
		Help: "Total number of events placed on the rule engine queue.",
	})

	EngineEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailtwin_engine_events_dropped_total",
		Help: "Total number of events rejected by the rule engine due to a full queue.",
	})

	EngineEventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailtwin_engine_events_processed_total",
		Help: "Total number of events evaluated against the rule graph.",
	})

	EngineQueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retailtwin_engine_queue_utilization",
		Help: "Rule engine queue fill ratio (0–1), sampled on readiness checks.",
	})

	RulesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailtwin_rules_matched_total",
		Help: "Total number of rule matches, labelled by rule ID.",
	}, []string{"rule_id"})

	RuleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailtwin_rule_errors_total",
		Help: "Total number of rule branches skipped because evaluation failed.",
	})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailtwin_actions_executed_total",
		Help: "Total number of actions executed, labelled by type and status.",
	}, []string{"action_type", "status"})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailtwin_alerts_raised_total",
		Help: "Total number of alerts raised, labelled by level.",
	}, []string{"level"})

	EngineProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retailtwin_engine_processing_duration_ms",
		Help:    "Rule evaluation plus action latency per event in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250},
	})

	SinkMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retailtwin_sink_messages_total",
		Help: "Events handed to the export sink, labelled by outcome (written, failed, dropped).",
	}, []string{"status"})

	RequestsLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retailtwin_http_requests_limited_total",
		Help: "Total number of HTTP requests rejected by the rate limiter.",
	})
)
