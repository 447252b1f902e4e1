package recognition

import (
	"context"
	"sync"
	"time"
)

// MemoryEventLog is an in-memory EventStore used when no database is
// configured. Events are lost on restart; cooldown recovery degrades
// accordingly.
type MemoryEventLog struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryEventLog creates an empty in-memory event log.
func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{}
}

// Append records an event.
func (l *MemoryEventLog) Append(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// RecentSince returns events admitted at or after since, newest first.
func (l *MemoryEventLog) RecentSince(_ context.Context, since time.Time) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Event
	for i := len(l.events) - 1; i >= 0; i-- {
		if !l.events[i].Timestamp.Before(since) {
			out = append(out, l.events[i])
		}
	}
	return out, nil
}
