package recognition

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// unknownKey is the shared cooldown key for unknown-person detections.
// Unknown faces cannot be told apart without an identity, so they share a
// single cooldown window rather than flooding the event store.
const unknownKey = "unknown"

// Correlator suppresses duplicate detections of the same person. Each key
// (identity ID, or the shared unknown key) is either idle or cooling: the
// first detection for an idle key is admitted and starts the cooldown, and
// further detections for that key are dropped until the cooldown elapses.
// The check-and-admit is atomic, so two near-simultaneous detections for
// the same identity produce exactly one admitted event.
type Correlator struct {
	cooldown time.Duration

	mu   sync.Mutex
	last map[string]time.Time // key -> last admitted detection time

	now func() time.Time // overridable in tests

	sweepOnce sync.Once
	stop      chan struct{}
}

// NewCorrelator creates a correlator with the given cooldown duration.
func NewCorrelator(cooldown time.Duration) *Correlator {
	return &Correlator{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Cooldown returns the configured cooldown duration.
func (c *Correlator) Cooldown() time.Duration {
	return c.cooldown
}

// CooldownKey returns the correlation key for a matched identity, or the
// shared unknown key when id is nil.
func CooldownKey(id *uuid.UUID) string {
	if id == nil {
		return unknownKey
	}
	return id.String()
}

// Admit reports whether a detection for the key may become an event. On
// admission the key starts cooling; the caller must call Release if the
// subsequent event-store write fails, so the detection leaves no trace.
func (c *Correlator) Admit(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if t, ok := c.last[key]; ok && now.Sub(t) < c.cooldown {
		return false
	}
	c.last[key] = now
	return true
}

// Release returns a just-admitted key to idle. Only valid after a successful
// Admit whose event could not be persisted; admission implies the key held
// no live cooldown before, so deleting restores the prior state.
func (c *Correlator) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, key)
}

// Seed primes cooldown state from previously persisted events, so cooldowns
// survive a restart. Older timestamps never overwrite newer ones.
func (c *Correlator) Seed(events []Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range events {
		key := CooldownKey(events[i].IdentityID)
		if t, ok := c.last[key]; !ok || events[i].Timestamp.After(t) {
			c.last[key] = events[i].Timestamp
		}
	}
}

// StartSweep launches a background goroutine that evicts expired cooldown
// entries every interval, bounding memory for galleries with many identities.
// Stop terminates it.
func (c *Correlator) StartSweep(interval time.Duration) {
	c.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.sweep()
				case <-c.stop:
					return
				}
			}
		}()
	})
}

// Stop terminates the sweep goroutine.
func (c *Correlator) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

// sweep removes entries whose cooldown has elapsed. An evicted key is
// indistinguishable from an idle one, so eviction never changes admission
// decisions.
func (c *Correlator) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, t := range c.last {
		if now.Sub(t) >= c.cooldown {
			delete(c.last, key)
		}
	}
}

// TrackedKeys returns the number of cooldown keys currently held, for stats.
func (c *Correlator) TrackedKeys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}
