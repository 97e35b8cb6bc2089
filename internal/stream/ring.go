package stream

import "github.com/gyaneshwarpardhi/retailtwin/internal/event"

// ring is a fixed-capacity buffer that keeps the most recent events.
type ring struct {
	buf  []*event.Event
	head int // next write position
	size int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]*event.Event, capacity)}
}

// push stores ev and returns the event it displaced, if the ring was full.
func (r *ring) push(ev *event.Event) *event.Event {
	evicted := r.buf[r.head]
	r.buf[r.head] = ev
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
		return nil
	}
	return evicted
}

// items returns a newest-first copy.
func (r *ring) items() []*event.Event {
	out := make([]*event.Event, 0, r.size)
	for i := 1; i <= r.size; i++ {
		idx := (r.head - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

func (r *ring) len() int { return r.size }

func (r *ring) reset() {
	for i := range r.buf {
		r.buf[i] = nil
	}
	r.head = 0
	r.size = 0
}
