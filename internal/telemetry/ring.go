package telemetry

import "sync"

// EventRing is a bounded, thread-safe buffer of recent usage events.
// When full, the oldest event is dropped to make room.
type EventRing struct {
	mu       sync.Mutex
	events   []UsageEvent
	head     int // next write position
	count    int
	capacity int

	dropped uint64
}

// NewEventRing creates a ring with the given capacity.
func NewEventRing(capacity int) *EventRing {
	if capacity <= 0 {
		capacity = 100
	}
	return &EventRing{
		events:   make([]UsageEvent, capacity),
		capacity: capacity,
	}
}

// Add appends an event, evicting the oldest when full.
func (r *EventRing) Add(event UsageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == r.capacity {
		r.dropped++
	} else {
		r.count++
	}
	r.events[r.head] = event
	r.head = (r.head + 1) % r.capacity
}

// Snapshot returns the buffered events, oldest first.
func (r *EventRing) Snapshot() []UsageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]UsageEvent, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := range r.count {
		out[i] = r.events[(start+i)%r.capacity]
	}
	return out
}

// Reset empties the ring.
func (r *EventRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.events)
	r.head = 0
	r.count = 0
	r.dropped = 0
}

// Len returns the number of buffered events.
func (r *EventRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Dropped returns how many events were evicted.
func (r *EventRing) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
