package recognition

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeClock drives a correlator through time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur = f.cur.Add(d)
}

func testCorrelator(cooldown time.Duration) (*Correlator, *fakeClock) {
	clock := newFakeClock()
	c := NewCorrelator(cooldown)
	c.now = clock.now
	return c, clock
}

func TestAdmitCooldownWindow(t *testing.T) {
	c, clock := testCorrelator(10 * time.Second)
	key := CooldownKey(nil)

	if !c.Admit(key) {
		t.Fatal("first detection must be admitted")
	}

	// Within the window.
	clock.advance(2 * time.Second)
	if c.Admit(key) {
		t.Error("detection at t+2s must be suppressed")
	}

	// Exactly at the boundary the cooldown has elapsed.
	clock.advance(8 * time.Second)
	if !c.Admit(key) {
		t.Error("detection at t+10s must be admitted")
	}

	clock.advance(11 * time.Second)
	if !c.Admit(key) {
		t.Error("detection after a full window must be admitted")
	}
}

func TestAdmitIndependentKeys(t *testing.T) {
	c, _ := testCorrelator(10 * time.Second)
	a := uuid.New()
	b := uuid.New()

	if !c.Admit(CooldownKey(&a)) {
		t.Fatal("first detection of a must be admitted")
	}
	if !c.Admit(CooldownKey(&b)) {
		t.Error("cooldown of a must not suppress b")
	}
	if !c.Admit(CooldownKey(nil)) {
		t.Error("cooldown of a must not suppress an unknown detection")
	}
}

func TestAdmitConcurrentExactlyOne(t *testing.T) {
	c, _ := testCorrelator(time.Minute)
	id := uuid.New()
	key := CooldownKey(&id)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for n := 0; n < 32; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Admit(key) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Fatalf("admitted %d detections, want exactly 1", got)
	}
}

func TestReleaseReturnsKeyToIdle(t *testing.T) {
	c, _ := testCorrelator(time.Minute)
	key := CooldownKey(nil)

	if !c.Admit(key) {
		t.Fatal("first detection must be admitted")
	}
	c.Release(key)
	if !c.Admit(key) {
		t.Error("released key must be admitted again immediately")
	}
}

func TestSeedRestoresCooldowns(t *testing.T) {
	c, clock := testCorrelator(10 * time.Second)
	id := uuid.New()

	c.Seed([]Event{
		{IdentityID: &id, Timestamp: clock.now().Add(-2 * time.Second)},
		{IdentityID: nil, Timestamp: clock.now().Add(-15 * time.Second)},
	})

	if c.Admit(CooldownKey(&id)) {
		t.Error("identity seeded 2s ago must still be cooling")
	}
	if !c.Admit(CooldownKey(nil)) {
		t.Error("unknown seeded 15s ago must be idle again")
	}
}

func TestSeedKeepsNewestTimestamp(t *testing.T) {
	c, clock := testCorrelator(10 * time.Second)
	id := uuid.New()

	// Out of order on purpose; the newer timestamp must win.
	c.Seed([]Event{
		{IdentityID: &id, Timestamp: clock.now().Add(-3 * time.Second)},
		{IdentityID: &id, Timestamp: clock.now().Add(-20 * time.Second)},
	})

	if c.Admit(CooldownKey(&id)) {
		t.Error("newest seeded timestamp must govern the cooldown")
	}
}

func TestSweepEvictsExpiredEntries(t *testing.T) {
	c, clock := testCorrelator(10 * time.Second)
	a := uuid.New()
	b := uuid.New()

	c.Admit(CooldownKey(&a))
	clock.advance(8 * time.Second)
	c.Admit(CooldownKey(&b))
	clock.advance(2 * time.Second)

	c.sweep()

	if got := c.TrackedKeys(); got != 1 {
		t.Fatalf("tracked keys after sweep = %d, want 1", got)
	}
	// Eviction must not change admission decisions.
	if !c.Admit(CooldownKey(&a)) {
		t.Error("expired key must be admitted after eviction")
	}
	if c.Admit(CooldownKey(&b)) {
		t.Error("live key must stay cooling after sweep")
	}
}

func TestStartSweepStop(t *testing.T) {
	c := NewCorrelator(time.Second)
	c.StartSweep(10 * time.Millisecond)
	c.Stop()
	// Stop is idempotent.
	c.Stop()
}
