package stream

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

type tmpl struct {
	cat event.Category
	sev event.Severity
	msg string
}

// seqGen emits events E1, E2, ... cycling through its templates.
type seqGen struct {
	mu    sync.Mutex
	n     int
	tmpls []tmpl
}

func newSeqGen(tmpls ...tmpl) *seqGen {
	if len(tmpls) == 0 {
		tmpls = []tmpl{{event.Sales, event.SeveritySuccess, "Sale completed"}}
	}
	return &seqGen{tmpls: tmpls}
}

func (g *seqGen) Generate() *event.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	t := g.tmpls[(g.n-1)%len(g.tmpls)]
	return &event.Event{
		ID:        fmt.Sprintf("E%d", g.n),
		Timestamp: time.Unix(int64(g.n), 0),
		Category:  t.cat,
		Severity:  t.sev,
		Source:    "POS System",
		Message:   t.msg,
		Details:   map[string]interface{}{},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedOptions ticks exactly once per second.
func fixedOptions(maxRetained int) Options {
	return Options{
		MaxRetained:   maxRetained,
		TickMin:       time.Second,
		TickMax:       time.Second,
		HourlyReset:   time.Hour,
		DispatchQueue: 64,
	}
}

func newTestStream(t *testing.T, gen Generator, opts Options) (*Stream, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s, err := New(gen, opts, WithClock(clock), WithRand(rand.New(rand.NewSource(1))), WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s, clock
}

func ids(events []*event.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"zero max retained", func(o *Options) { o.MaxRetained = 0 }, ErrInvalidMaxRetained},
		{"negative max retained", func(o *Options) { o.MaxRetained = -5 }, ErrInvalidMaxRetained},
		{"zero tick min", func(o *Options) { o.TickMin = 0 }, ErrInvalidTickRange},
		{"inverted range", func(o *Options) { o.TickMin, o.TickMax = 2*time.Second, time.Second }, ErrInvalidTickRange},
		{"zero reset period", func(o *Options) { o.HourlyReset = 0 }, ErrInvalidResetPeriod},
		{"zero dispatch queue", func(o *Options) { o.DispatchQueue = 0 }, ErrInvalidDispatchQueue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			s, err := New(newSeqGen(), opts)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, s)
		})
	}

	_, err := New(nil, DefaultOptions())
	require.ErrorIs(t, err, ErrNilGenerator)
}

func TestDefaultOptionsAreValid(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.validate())
	require.Equal(t, 200, opts.MaxRetained)
	require.Equal(t, 800*time.Millisecond, opts.TickMin)
	require.Equal(t, 2*time.Second, opts.TickMax)
	require.Equal(t, time.Hour, opts.HourlyReset)
}

func TestRetention_KeepsNewestN(t *testing.T) {
	s, clock := newTestStream(t, newSeqGen(), fixedOptions(3))
	s.Start()
	clock.Advance(5 * time.Second)

	snap := s.Snapshot()
	require.Equal(t, []string{"E5", "E4", "E3"}, ids(snap.Events))
	require.Equal(t, 5, snap.Stats.Total)
}

func TestTickInterval_StaysInRange(t *testing.T) {
	opts := fixedOptions(10)
	opts.TickMin, opts.TickMax = 800*time.Millisecond, 2*time.Second
	s, clock := newTestStream(t, newSeqGen(), opts)
	s.Start()

	clock.Advance(799 * time.Millisecond)
	require.Equal(t, 0, s.Stats().Total)
	clock.Advance(1201 * time.Millisecond)
	require.GreaterOrEqual(t, s.Stats().Total, 1)

	for i := 0; i < 200; i++ {
		d := s.nextInterval()
		require.GreaterOrEqual(t, d, opts.TickMin)
		require.LessOrEqual(t, d, opts.TickMax)
	}
}

func TestPause_HoldsStateUntilResume(t *testing.T) {
	s, clock := newTestStream(t, newSeqGen(), fixedOptions(10))
	s.Start()
	clock.Advance(2 * time.Second)
	require.Equal(t, 2, s.Stats().Total)

	s.Pause()
	require.Equal(t, Paused, s.State())
	before := s.Snapshot()
	clock.Advance(10 * time.Minute)
	after := s.Snapshot()
	require.Equal(t, ids(before.Events), ids(after.Events))
	require.Equal(t, before.Stats, after.Stats)
	require.True(t, after.Paused)

	s.Resume()
	require.Equal(t, Generating, s.State())
	clock.Advance(time.Second)
	require.Equal(t, 3, s.Stats().Total)
}

func TestPause_IgnoredWhenNotGenerating(t *testing.T) {
	s, _ := newTestStream(t, newSeqGen(), fixedOptions(10))
	s.Pause()
	require.Equal(t, Idle, s.State())
	s.Resume()
	require.Equal(t, Idle, s.State())
}

func TestClear_PreservesLifecycleState(t *testing.T) {
	gen := newSeqGen(
		tmpl{event.Sales, event.SeveritySuccess, "Sale"},
		tmpl{event.Customer, event.SeverityInfo, "Customer visit"},
	)
	s, clock := newTestStream(t, gen, fixedOptions(10))
	s.Start()
	clock.Advance(4 * time.Second)

	s.Pause()
	s.Clear()
	snap := s.Snapshot()
	require.Empty(t, snap.Events)
	require.Equal(t, RollingStats{}, snap.Stats)
	require.True(t, snap.Paused)

	s.Resume()
	clock.Advance(time.Second)
	s.Clear()
	require.Equal(t, Generating, s.State())
	require.Empty(t, s.Snapshot().Events)

	clock.Advance(time.Second)
	require.Equal(t, 1, s.Stats().Total)
}

func TestStop_BeforeStartNeverGenerates(t *testing.T) {
	s, clock := newTestStream(t, newSeqGen(), fixedOptions(10))
	s.Stop()
	s.Start()
	s.Resume()
	clock.Advance(2 * time.Hour)

	require.Equal(t, Stopped, s.State())
	require.Empty(t, s.Snapshot().Events)
	require.Zero(t, clock.Pending())
}

func TestStop_ReleasesTimersAndIsIdempotent(t *testing.T) {
	s, clock := newTestStream(t, newSeqGen(), fixedOptions(10))
	s.Start()
	clock.Advance(2 * time.Second)
	require.Equal(t, 2, clock.Pending())

	s.Stop()
	s.Stop()
	require.Zero(t, clock.Pending())
	clock.Advance(time.Hour)
	require.Equal(t, 2, s.Stats().Total)
}

func TestStop_StaleCallbackIsInert(t *testing.T) {
	s, _ := newTestStream(t, newSeqGen(), fixedOptions(10))
	s.Start()
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	s.Stop()
	s.onTick(epoch)
	s.onHourly()
	require.Zero(t, s.Stats().Total)
}

func TestStop_RealClock(t *testing.T) {
	opts := Options{
		MaxRetained:   50,
		TickMin:       5 * time.Millisecond,
		TickMax:       10 * time.Millisecond,
		HourlyReset:   time.Hour,
		DispatchQueue: 64,
	}

	idle, err := New(newSeqGen(), opts, WithLogger(quietLogger()))
	require.NoError(t, err)
	idle.Stop()
	time.Sleep(4 * opts.TickMax)
	require.Empty(t, idle.Snapshot().Events)

	s, err := New(newSeqGen(), opts, WithLogger(quietLogger()))
	require.NoError(t, err)
	s.Start()
	require.Eventually(t, func() bool { return s.Stats().Total >= 2 }, time.Second, time.Millisecond)
	s.Stop()
	n := s.Stats().Total
	time.Sleep(4 * opts.TickMax)
	require.Equal(t, n, s.Stats().Total)
}

func TestRollingStats_Counters(t *testing.T) {
	gen := newSeqGen(
		tmpl{event.Sales, event.SeveritySuccess, "Sale"},
		tmpl{event.Inventory, event.SeverityWarning, "Inventory low for Coffee Maker"},
		tmpl{event.Inventory, event.SeverityInfo, "Inventory restocked for Coffee Maker"},
		tmpl{event.System, event.SeverityError, "System error"},
		tmpl{event.System, event.SeverityWarning, "System degraded"},
		tmpl{event.Customer, event.SeverityInfo, "Customer visit"},
		tmpl{event.Payment, event.SeverityError, "Payment declined"},
	)
	s, clock := newTestStream(t, gen, fixedOptions(100))
	s.Start()
	clock.Advance(7 * time.Second)

	require.Equal(t, RollingStats{
		Total:           7,
		Sales:           1,
		InventoryAlerts: 1,
		SystemIssues:    1,
		HourlyCustomers: 1,
	}, s.Stats())
}

func TestHourlyReset_RunsIndependentlyOfTicks(t *testing.T) {
	opts := fixedOptions(100)
	opts.HourlyReset = 10500 * time.Millisecond
	s, clock := newTestStream(t, newSeqGen(tmpl{event.Customer, event.SeverityInfo, "Customer visit"}), opts)
	s.Start()

	clock.Advance(10 * time.Second)
	require.Equal(t, 10, s.Stats().HourlyCustomers)

	clock.Advance(time.Second)
	st := s.Stats()
	require.Equal(t, 1, st.HourlyCustomers)
	require.Equal(t, 11, st.Total)

	s.Pause()
	clock.Advance(10 * time.Second)
	st = s.Stats()
	require.Zero(t, st.HourlyCustomers)
	require.Equal(t, 11, st.Total)
}

func TestFilteredView_MatchesCategoryAndQuery(t *testing.T) {
	s, clock := newTestStream(t, newSeqGen(tmpl{event.Inventory, event.SeverityWarning, "Inventory low for Wireless Earbuds"}), fixedOptions(10))
	s.Start()
	clock.Advance(time.Second)
	s.Pause()

	require.NoError(t, s.SetFilter("Sales", ""))
	got := s.FilteredView()
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Len(t, s.Snapshot().Events, 1)

	require.NoError(t, s.SetFilter("all", "earbuds"))
	require.Equal(t, []string{"E1"}, ids(s.FilteredView()))
}

func TestFilteredView_BeforeStartIsEmpty(t *testing.T) {
	s, _ := newTestStream(t, newSeqGen(), fixedOptions(10))
	got := s.FilteredView()
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestFilteredView_PreservesNewestFirstOrder(t *testing.T) {
	gen := newSeqGen(
		tmpl{event.Sales, event.SeveritySuccess, "Sale"},
		tmpl{event.Staff, event.SeverityInfo, "Shift started"},
	)
	s, clock := newTestStream(t, gen, fixedOptions(10))
	s.Start()
	clock.Advance(6 * time.Second)

	require.NoError(t, s.SetFilter("sales", ""))
	require.Equal(t, []string{"E5", "E3", "E1"}, ids(s.FilteredView()))
}

func TestSetFilter_UnknownCategoryKeepsPreviousView(t *testing.T) {
	s, _ := newTestStream(t, newSeqGen(), fixedOptions(10))
	require.NoError(t, s.SetFilter("Inventory", "coffee"))
	require.Error(t, s.SetFilter("Groceries", ""))

	v := s.Filter()
	require.Equal(t, "Inventory", v.Category())
	require.Equal(t, "coffee", v.Query())
}

func TestSetExpression_CombinesWithFilter(t *testing.T) {
	gen := newSeqGen(
		tmpl{event.System, event.SeverityError, "System error"},
		tmpl{event.System, event.SeverityInfo, "System check"},
		tmpl{event.Sales, event.SeverityError, "Sale failed"},
	)
	s, clock := newTestStream(t, gen, fixedOptions(10))
	s.Start()
	clock.Advance(3 * time.Second)

	require.NoError(t, s.SetExpression(`severity == "error"`))
	require.Equal(t, []string{"E3", "E1"}, ids(s.FilteredView()))

	require.NoError(t, s.SetFilter("System", ""))
	require.Equal(t, []string{"E1"}, ids(s.FilteredView()))
	require.Equal(t, `severity == "error"`, s.Filter().Expression())

	require.Error(t, s.SetExpression(`severity ==`))
	require.Equal(t, `severity == "error"`, s.Filter().Expression())

	require.NoError(t, s.SetExpression(""))
	require.Equal(t, []string{"E2", "E1"}, ids(s.FilteredView()))
}

func TestQuery_DoesNotTouchStoredView(t *testing.T) {
	s, clock := newTestStream(t, newSeqGen(
		tmpl{event.Sales, event.SeveritySuccess, "Sale"},
		tmpl{event.Payment, event.SeverityInfo, "Payment processed"},
	), fixedOptions(10))
	s.Start()
	clock.Advance(2 * time.Second)

	v, err := NewView("payment", "")
	require.NoError(t, err)
	require.Equal(t, []string{"E2"}, ids(s.Query(v)))
	require.Equal(t, CategoryAll, s.Filter().Category())
	require.Len(t, s.FilteredView(), 2)
}

func TestSubscribe_DeliversUpdatesInOrder(t *testing.T) {
	s, clock := newTestStream(t, newSeqGen(), fixedOptions(2))

	var mu sync.Mutex
	var got []Update
	s.Subscribe(func(u Update) {
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	})
	var cancelled atomic.Int32
	cancel := s.Subscribe(func(Update) { cancelled.Add(1) })
	cancel()
	cancel()

	s.Start()
	clock.Advance(3 * time.Second)
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	for i, u := range got {
		require.Equal(t, fmt.Sprintf("E%d", i+1), u.Event.ID)
		require.Equal(t, i+1, u.Stats.Total)
	}
	require.Nil(t, got[0].Evicted)
	require.Nil(t, got[1].Evicted)
	require.Equal(t, "E1", got[2].Evicted.ID)
	require.Zero(t, cancelled.Load())
}

func TestSummarize(t *testing.T) {
	events := []*event.Event{
		{Severity: event.SeveritySuccess},
		{Severity: event.SeverityInfo},
		{Severity: event.SeverityWarning},
		{Severity: event.SeverityError},
		{Severity: event.SeverityError},
	}
	require.Equal(t, SeverityCounts{Normal: 2, Alerts: 1, Critical: 2}, Summarize(events))
	require.Equal(t, SeverityCounts{}, Summarize(nil))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "generating", Generating.String())
	require.Equal(t, "paused", Paused.String())
	require.Equal(t, "stopped", Stopped.String())
	require.Equal(t, "unknown", State(42).String())
}
