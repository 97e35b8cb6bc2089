// Package stream schedules event generation, retains the most recent events
// and maintains rolling statistics and a filtered view over them.
//
// A Stream is a small state machine:
//
//	Idle -> Generating <-> Paused
//	  \         |            |
//	   +----> Stopped <------+
//
// Each tick is a single timer callback that generates one event, records it,
// and arms the next tick with a freshly randomized delay. A second,
// independent timer zeroes the hourly customer counter.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
	"github.com/gyaneshwarpardhi/retailtwin/internal/metrics"
	"github.com/gyaneshwarpardhi/retailtwin/internal/pool"
)

var (
	ErrNilGenerator         = errors.New("stream: generator is required")
	ErrInvalidMaxRetained   = errors.New("stream: max retained must be greater than zero")
	ErrInvalidTickRange     = errors.New("stream: tick range must be positive with min <= max")
	ErrInvalidResetPeriod   = errors.New("stream: hourly reset period must be greater than zero")
	ErrInvalidDispatchQueue = errors.New("stream: dispatch queue must be greater than zero")
)

// Generator produces one event per call.
type Generator interface {
	Generate() *event.Event
}

// State is the lifecycle state of a Stream.
type State int

const (
	Idle State = iota
	Generating
	Paused
	Stopped
)

var stateNames = [...]string{"idle", "generating", "paused", "stopped"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Options configure a Stream. Zero or negative values are rejected by New.
type Options struct {
	MaxRetained   int
	TickMin       time.Duration
	TickMax       time.Duration
	HourlyReset   time.Duration
	DispatchQueue int
}

func DefaultOptions() Options {
	return Options{
		MaxRetained:   200,
		TickMin:       800 * time.Millisecond,
		TickMax:       2000 * time.Millisecond,
		HourlyReset:   time.Hour,
		DispatchQueue: 256,
	}
}

func (o Options) validate() error {
	switch {
	case o.MaxRetained <= 0:
		return ErrInvalidMaxRetained
	case o.TickMin <= 0 || o.TickMax < o.TickMin:
		return ErrInvalidTickRange
	case o.HourlyReset <= 0:
		return ErrInvalidResetPeriod
	case o.DispatchQueue <= 0:
		return ErrInvalidDispatchQueue
	}
	return nil
}

// Option customizes a Stream beyond its Options.
type Option func(*Stream)

func WithClock(c Clock) Option { return func(s *Stream) { s.clock = c } }

// WithRand sets the source of tick jitter.
func WithRand(r *rand.Rand) Option { return func(s *Stream) { s.rng = r } }

func WithLogger(l *slog.Logger) Option { return func(s *Stream) { s.logger = l } }

// Update is published to subscribers after every tick.
type Update struct {
	Event   *event.Event `json:"event"`
	Stats   RollingStats `json:"stats"`
	Evicted *event.Event `json:"evicted,omitempty"`
}

// Snapshot is a consistent copy of the stream's state.
type Snapshot struct {
	Events []*event.Event `json:"events"`
	Stats  RollingStats   `json:"stats"`
	State  State          `json:"state"`
	Paused bool           `json:"paused"`
}

type subscriber struct {
	id string
	fn func(Update)
}

// Stream owns the retention ring, the rolling stats and the current view.
// All methods are safe for concurrent use.
type Stream struct {
	gen    Generator
	opts   Options
	clock  Clock
	rng    *rand.Rand
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	ring   *ring
	stats  RollingStats
	view   View
	tick   Timer
	hourly Timer
	epoch  uint64 // bumped whenever the pending tick is invalidated

	subMu sync.RWMutex
	subs  []subscriber

	dispatch *pool.Pool[Update]
	cancel   context.CancelFunc
}

// New validates opts and returns an idle Stream.
func New(gen Generator, opts Options, options ...Option) (*Stream, error) {
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	s := &Stream{
		gen:   gen,
		opts:  opts,
		clock: realClock{},
		ring:  newRing(opts.MaxRetained),
	}
	for _, o := range options {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.dispatch = pool.New(ctx, 1, opts.DispatchQueue, s.deliver)
	setStateGauge(Idle)
	metrics.RetainedEvents.Set(0)
	return s, nil
}

// Options returns the configuration the stream was built with.
func (s *Stream) Options() Options { return s.opts }

// Start begins generating. It only acts on an Idle stream.
func (s *Stream) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return
	}
	s.setState(Generating)
	s.armTick()
	s.armHourly()
	s.logger.Info("event stream started",
		"max_retained", s.opts.MaxRetained,
		"tick_min", s.opts.TickMin,
		"tick_max", s.opts.TickMax)
}

// Pause suspends generation without touching retained events or stats.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Generating {
		return
	}
	s.cancelTick()
	s.setState(Paused)
	s.logger.Info("event stream paused")
}

// Resume continues a paused stream with a freshly scheduled tick.
func (s *Stream) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Paused {
		return
	}
	s.setState(Generating)
	s.armTick()
	s.logger.Info("event stream resumed")
}

// Stop halts the stream for good and waits for queued updates to be
// delivered. After Stop returns no tick mutates the stream. It must not be
// called from a subscriber callback.
func (s *Stream) Stop() {
	s.mu.Lock()
	if s.state != Stopped {
		s.cancelTick()
		if s.hourly != nil {
			s.hourly.Stop()
			s.hourly = nil
		}
		s.setState(Stopped)
		s.logger.Info("event stream stopped", "retained", s.ring.len(), "total", s.stats.Total)
	}
	s.mu.Unlock()

	s.dispatch.Drain()
	s.cancel()
}

// Clear drops every retained event and zeroes the stats. The lifecycle state
// is left as it was.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring.reset()
	s.stats = RollingStats{}
	metrics.RetainedEvents.Set(0)
	s.logger.Info("event stream cleared", "state", s.state)
}

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stream) Stats() RollingStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Snapshot returns the retained events newest first together with the stats
// and lifecycle state, all taken at the same instant.
func (s *Stream) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Events: s.ring.items(),
		Stats:  s.stats,
		State:  s.state,
		Paused: s.state == Paused,
	}
}

// SetFilter replaces the category and query of the stored view, keeping its
// expression.
func (s *Stream) SetFilter(category, query string) error {
	v, err := NewView(category, query)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v.prog = s.view.prog
	s.view = v
	return nil
}

// SetExpression replaces the expression of the stored view. An empty
// expression removes it.
func (s *Stream) SetExpression(expr string) error {
	v, err := View{}.WithExpression(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.prog = v.prog
	return nil
}

// SetView replaces the stored view as a whole.
func (s *Stream) SetView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// Filter returns the stored view.
func (s *Stream) Filter() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// FilteredView applies the stored view to the retained events.
func (s *Stream) FilteredView() []*event.Event {
	s.mu.Lock()
	items, v := s.ring.items(), s.view
	s.mu.Unlock()
	return v.Apply(items)
}

// Query applies an arbitrary view without changing the stored one.
func (s *Stream) Query(v View) []*event.Event {
	s.mu.Lock()
	items := s.ring.items()
	s.mu.Unlock()
	return v.Apply(items)
}

// Subscribe registers fn to receive every Update in generation order. fn runs
// on the stream's dispatch goroutine and should return quickly. The returned
// func removes the subscription.
func (s *Stream) Subscribe(fn func(Update)) (cancel func()) {
	id := uuid.NewString()
	s.subMu.Lock()
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Stream) deliver(_ context.Context, u Update) {
	s.subMu.RLock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()
	for _, sub := range subs {
		sub.fn(u)
	}
}

// armTick schedules the next tick. Caller holds s.mu.
func (s *Stream) armTick() {
	epoch := s.epoch
	s.tick = s.clock.AfterFunc(s.nextInterval(), func() { s.onTick(epoch) })
}

// cancelTick invalidates the pending tick. Caller holds s.mu.
func (s *Stream) cancelTick() {
	s.epoch++
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
}

func (s *Stream) nextInterval() time.Duration {
	spread := s.opts.TickMax - s.opts.TickMin
	if spread <= 0 {
		return s.opts.TickMin
	}
	return s.opts.TickMin + time.Duration(s.rng.Int63n(int64(spread)+1))
}

func (s *Stream) onTick(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Generating || epoch != s.epoch {
		return
	}

	ev := s.gen.Generate()
	evicted := s.ring.push(ev)
	s.stats.apply(ev)

	metrics.EventsGenerated.WithLabelValues(string(ev.Category)).Inc()
	metrics.RetainedEvents.Set(float64(s.ring.len()))
	if evicted != nil {
		metrics.EventsEvicted.Inc()
	}

	// Enqueued under the lock so subscribers see updates in generation order.
	if !s.dispatch.Submit(Update{Event: ev, Stats: s.stats, Evicted: evicted}) {
		metrics.UpdatesDropped.Inc()
		s.logger.Warn("dispatch queue full, update dropped", "event_id", ev.ID)
	}

	s.armTick()
}

// armHourly schedules the next customer counter reset. Caller holds s.mu.
func (s *Stream) armHourly() {
	s.hourly = s.clock.AfterFunc(s.opts.HourlyReset, s.onHourly)
}

func (s *Stream) onHourly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped {
		return
	}
	s.logger.Debug("hourly customer counter reset", "customers", s.stats.HourlyCustomers)
	s.stats.HourlyCustomers = 0
	s.armHourly()
}

// setState records the transition. Caller holds s.mu.
func (s *Stream) setState(st State) {
	s.state = st
	setStateGauge(st)
}

func setStateGauge(st State) {
	for i := range stateNames {
		v := 0.0
		if State(i) == st {
			v = 1
		}
		metrics.StreamState.WithLabelValues(stateNames[i]).Set(v)
	}
}
