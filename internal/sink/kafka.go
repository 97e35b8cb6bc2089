// Package sink exports generated events to Kafka.
package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gyaneshwarpardhi/retailtwin/internal/config"
	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
	"github.com/gyaneshwarpardhi/retailtwin/internal/metrics"
	"github.com/gyaneshwarpardhi/retailtwin/internal/stream"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher batches events from the stream and writes them to Kafka. Write
// failures are logged and counted; they never reach the stream.
type Publisher struct {
	w         MessageWriter
	batchSize int
	timeout   time.Duration
	logger    *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	queue   chan *event.Event
	done    chan struct{}
}

// NewKafka builds a Publisher around a kafka.Writer keyed by category.
func NewKafka(conf config.KafkaConf, logger *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        conf.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    conf.BatchSize,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: conf.Timeout(),
		RequiredAcks: kafka.RequireOne,
	}
	if logger != nil {
		logger.Info("kafka sink enabled", "brokers", conf.Brokers, "topic", conf.Topic)
	}
	return New(w, conf.QueueDepth, conf.BatchSize, conf.Timeout(), logger)
}

// New wraps any MessageWriter.
func New(w MessageWriter, queueDepth, batchSize int, timeout time.Duration, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &Publisher{
		w:         w,
		batchSize: batchSize,
		timeout:   timeout,
		logger:    logger,
		queue:     make(chan *event.Event, queueDepth),
		done:      make(chan struct{}),
	}
}

// Handle enqueues the update's event without blocking. Subscribe it to the
// stream.
func (p *Publisher) Handle(u stream.Update) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- u.Event:
	default:
		metrics.SinkMessages.WithLabelValues("dropped").Inc()
	}
}

// Start launches the writer goroutine.
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	go p.run(ctx)
}

// Close flushes queued events, waits for the writer goroutine and closes the
// underlying writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	started := p.started
	p.mu.Unlock()

	if started {
		<-p.done
	}
	return p.w.Close()
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.queue:
			if !ok {
				return
			}
			batch := p.collect(ev)
			p.write(ctx, batch)
		}
	}
}

// collect takes first plus whatever is already queued, up to batchSize.
func (p *Publisher) collect(first *event.Event) []kafka.Message {
	batch := make([]kafka.Message, 0, p.batchSize)
	if m, ok := p.message(first); ok {
		batch = append(batch, m)
	}
	for len(batch) < p.batchSize {
		select {
		case ev, ok := <-p.queue:
			if !ok {
				return batch
			}
			if m, ok := p.message(ev); ok {
				batch = append(batch, m)
			}
		default:
			return batch
		}
	}
	return batch
}

func (p *Publisher) message(ev *event.Event) (kafka.Message, bool) {
	value, err := json.Marshal(ev)
	if err != nil {
		metrics.SinkMessages.WithLabelValues("failed").Inc()
		p.logger.Warn("kafka encode error", "event_id", ev.ID, "err", err)
		return kafka.Message{}, false
	}
	return kafka.Message{
		Key:     []byte(ev.Category),
		Value:   value,
		Time:    ev.Timestamp,
		Headers: []kafka.Header{{Key: "event-id", Value: []byte(ev.ID)}},
	}, true
}

func (p *Publisher) write(ctx context.Context, batch []kafka.Message) {
	if len(batch) == 0 {
		return
	}
	wctx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.w.WriteMessages(wctx, batch...); err != nil {
		metrics.SinkMessages.WithLabelValues("failed").Add(float64(len(batch)))
		p.logger.Warn("kafka write error", "messages", len(batch), "err", err)
		return
	}
	metrics.SinkMessages.WithLabelValues("written").Add(float64(len(batch)))
}
