package alert

import (
	"sync"
	"time"
)

// Cooldown suppresses repeats of the same key inside a time window.
type Cooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewCooldown() *Cooldown {
	return &Cooldown{last: make(map[string]time.Time), now: time.Now}
}

// Allow reports whether key may fire now and, if so, records it.
func (c *Cooldown) Allow(key string, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts, ok := c.last[key]; ok && now.Sub(ts) < window {
		return false
	}
	c.last[key] = now
	return true
}

// Reset forgets every key.
func (c *Cooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = make(map[string]time.Time)
}
