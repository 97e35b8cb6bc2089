package alert

import (
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/retailtwin/internal/event"
)

// Level is the urgency of an alert.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Alert is raised by a rule action for one event.
type Alert struct {
	ID       string         `json:"id"`
	RuleID   string         `json:"rule_id"`
	ActionID string         `json:"action_id"`
	EventID  string         `json:"event_id"`
	Category event.Category `json:"category"`
	Level    Level          `json:"level"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	RaisedAt time.Time      `json:"raised_at"`
}

// Store keeps the most recent alerts, oldest dropped first.
type Store struct {
	mu    sync.RWMutex
	buf   []Alert
	limit int
}

// NewStore creates a store holding at most limit alerts (1000 if limit <= 0).
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit}
}

func (s *Store) Add(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, a)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = a
}

// List returns up to limit alerts, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]Alert, 0, limit)
	for i := len(s.buf) - 1; i >= len(s.buf)-limit; i-- {
		out = append(out, s.buf[i])
	}
	return out
}

// Since returns alerts raised at or after ts, newest first.
func (s *Store) Since(ts time.Time) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alert, 0)
	for i := len(s.buf) - 1; i >= 0; i-- {
		if s.buf[i].RaisedAt.Before(ts) {
			break
		}
		out = append(out, s.buf[i])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}
