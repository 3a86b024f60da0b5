// Package bus propagates facility availability changes to interested
// listeners inside the process.
package bus

import "sync"

// Event signals a change to one facility's availability flag.
type Event struct {
	FacilityID int64
	Available  bool
}

// Listener receives published events.
type Listener func(Event)

// Bus delivers events synchronously, in subscription order, at most once per
// publish. There is no persistence, no replay and no backpressure: a slow
// listener delays the publisher.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns a disposer that removes it.
// Calling the disposer more than once is harmless.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every current listener. Listeners run outside the
// bus lock so they may publish or unsubscribe without deadlocking; a listener
// added during delivery only sees later events.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	current := make([]subscription, len(b.listeners))
	copy(current, b.listeners)
	b.mu.Unlock()

	for _, s := range current {
		s.fn(ev)
	}
}
