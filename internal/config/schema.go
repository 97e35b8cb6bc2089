package config

import (
	"time"

	"github.com/gyaneshwarpardhi/retailtwin/internal/generator"
	"github.com/gyaneshwarpardhi/retailtwin/internal/stream"
)

// Config is the top-level YAML structure.
type Config struct {
	Version string     `yaml:"version"`
	Log     LogConf    `yaml:"log"`
	Server  ServerConf `yaml:"server"`
	Stream  StreamConf `yaml:"stream"`
	Engine  EngineConf `yaml:"engine"`
	Alerts  AlertConf  `yaml:"alerts"`
	Sink    SinkConf   `yaml:"sink"`
	Rules   []Rule     `yaml:"rules"`
}

// LogConf selects the slog handler.
type LogConf struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// ServerConf configures the HTTP surface.
type ServerConf struct {
	Addr           string  `yaml:"addr"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"` // 0 disables limiting
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// StreamConf holds the event stream settings. Changing it requires a restart.
type StreamConf struct {
	MaxRetained   int   `yaml:"max_retained"`
	TickMinMs     int   `yaml:"tick_min_ms"`
	TickMaxMs     int   `yaml:"tick_max_ms"`
	HourlyResetMs int64 `yaml:"hourly_reset_ms"`
	DispatchQueue int   `yaml:"dispatch_queue"`
	Seed          int64 `yaml:"seed"` // 0 = time based
	AutoStart     bool  `yaml:"auto_start"`

	Vocabulary generator.Vocabulary `yaml:"vocabulary"`
}

// EngineConf holds rule engine concurrency settings.
type EngineConf struct {
	EventWorkers int `yaml:"event_workers"`
	QueueDepth   int `yaml:"queue_depth"`
}

// AlertConf bounds the in-memory alert store.
type AlertConf struct {
	Retained int `yaml:"retained"`
}

// SinkConf configures optional event export.
type SinkConf struct {
	Kafka KafkaConf `yaml:"kafka"`
}

// KafkaConf configures the Kafka publisher.
type KafkaConf struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	QueueDepth   int      `yaml:"queue_depth"`
	BatchSize    int      `yaml:"batch_size"`
	WriteTimeout string   `yaml:"write_timeout"`
}

// Rule is an entry point that filters events by category, severity and source.
type Rule struct {
	ID          string    `yaml:"id" json:"id"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Enabled     bool      `yaml:"enabled" json:"enabled"`
	Categories  []string  `yaml:"categories" json:"categories"`
	Severities  []string  `yaml:"severities" json:"severities,omitempty"` // empty = all
	Sources     []string  `yaml:"sources" json:"sources,omitempty"`       // empty = all
	Children    []NodeRef `yaml:"children" json:"children"`
}

// NodeRef is a discriminated union: exactly one of Condition or Action is set.
type NodeRef struct {
	Condition *ConditionDef `yaml:"condition,omitempty" json:"condition,omitempty"`
	Action    *ActionDef    `yaml:"action,omitempty" json:"action,omitempty"`
}

// ConditionDef holds an expression and nested children.
type ConditionDef struct {
	ID         string    `yaml:"id" json:"id"`
	Expression string    `yaml:"expression" json:"expression"`
	Children   []NodeRef `yaml:"children" json:"children,omitempty"`
}

// ActionDef is a leaf node that specifies an action to execute.
type ActionDef struct {
	ID     string                 `yaml:"id" json:"id"`
	Type   string                 `yaml:"type" json:"type"`
	Params map[string]interface{} `yaml:"params" json:"params,omitempty"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() *Config {
	return &Config{
		Version: "1",
		Log:     LogConf{Level: "info", Format: "text"},
		Server: ServerConf{
			Addr:           ":8080",
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Stream: StreamConf{
			MaxRetained:   200,
			TickMinMs:     800,
			TickMaxMs:     2000,
			HourlyResetMs: 3_600_000,
			DispatchQueue: 256,
			AutoStart:     true,
		},
		Engine: EngineConf{EventWorkers: 4, QueueDepth: 1024},
		Alerts: AlertConf{Retained: 500},
		Sink: SinkConf{Kafka: KafkaConf{
			Topic:        "retail-events",
			QueueDepth:   1024,
			BatchSize:    100,
			WriteTimeout: "5s",
		}},
	}
}

// Options converts the stream section to stream.Options.
func (s StreamConf) Options() stream.Options {
	return stream.Options{
		MaxRetained:   s.MaxRetained,
		TickMin:       time.Duration(s.TickMinMs) * time.Millisecond,
		TickMax:       time.Duration(s.TickMaxMs) * time.Millisecond,
		HourlyReset:   time.Duration(s.HourlyResetMs) * time.Millisecond,
		DispatchQueue: s.DispatchQueue,
	}
}

// Timeout parses WriteTimeout. Validate guarantees it parses.
func (k KafkaConf) Timeout() time.Duration {
	d, _ := time.ParseDuration(k.WriteTimeout)
	return d
}
