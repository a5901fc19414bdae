// Package events carries change notifications from the services to whoever
// presents state (the SSE endpoint, the CLI, tests). Services publish after a
// mutation has been persisted; subscribers re-read what they need.
package events

import (
	"sync"
	"time"
)

// Type names the kind of change.
type Type string

const (
	UserChanged     Type = "user.changed"
	UserSignedOut   Type = "user.signed_out"
	TripsChanged    Type = "trips.changed"
	MemoriesChanged Type = "memories.changed"
	ThemeChanged    Type = "theme.changed"
	CurrentChanged  Type = "current_trip.changed"
	MapChanged      Type = "map.changed"
	TrackingStopped Type = "tracking.stopped"
)

// Event is a single change notification. ID is the affected entity when
// there is one.
type Event struct {
	Type      Type      `json:"type"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is what the services depend on.
type Publisher interface {
	Publish(e Event)
}

// Bus fans events out to every subscriber. Slow subscribers lose events
// rather than block publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	now    func() time.Time
	closed bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{}), now: time.Now}
}

// Publish stamps e (when unstamped) and delivers it to every subscriber
// whose buffer has room.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = b.now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel of events and a function that unsubscribes
// and closes it. The function is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

// Close unsubscribes everyone. Later Publish calls are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.closed = true
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}
