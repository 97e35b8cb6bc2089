package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
	"github.com/gyaneshwarpardhi/retailtwin/internal/stream"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	calls  int
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func update(id string, c event.Category) stream.Update {
	return stream.Update{Event: &event.Event{
		ID:        id,
		Timestamp: time.Unix(1700000000, 0),
		Category:  c,
		Severity:  event.SeverityInfo,
		Message:   "test",
		Details:   map[string]interface{}{"code": "SAVE10"},
	}}
}

func TestPublisher_WritesEveryEvent(t *testing.T) {
	w := &fakeWriter{}
	p := New(w, 16, 2, time.Second, quietLogger())
	p.Start(context.Background())

	p.Handle(update("e1", event.Sales))
	p.Handle(update("e2", event.Promotion))
	p.Handle(update("e3", event.Sales))
	require.NoError(t, p.Close())

	w.mu.Lock()
	defer w.mu.Unlock()
	require.True(t, w.closed)
	require.Len(t, w.msgs, 3)
	require.Equal(t, "Sales", string(w.msgs[0].Key))
	require.Equal(t, "Promotion", string(w.msgs[1].Key))
	require.Equal(t, "event-id", w.msgs[2].Headers[0].Key)
	require.Equal(t, "e3", string(w.msgs[2].Headers[0].Value))

	var ev event.Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	require.Equal(t, "e1", ev.ID)
	require.Equal(t, event.Sales, ev.Category)
}

func TestPublisher_WriteErrorsAreAbsorbed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := New(w, 16, 10, time.Second, quietLogger())
	p.Start(context.Background())

	p.Handle(update("e1", event.Sales))
	require.NoError(t, p.Close())

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Equal(t, 1, w.calls)
	require.Empty(t, w.msgs)
}

func TestPublisher_DropsWhenFullAndAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := New(w, 1, 10, time.Second, quietLogger())

	p.Handle(update("e1", event.Sales))
	p.Handle(update("e2", event.Sales))
	require.Len(t, p.queue, 1)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	p.Handle(update("e3", event.Sales))
	p.Start(context.Background())
	require.Empty(t, w.msgs)
}
