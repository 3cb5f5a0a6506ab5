package event

import (
	"sync"

	"github.com/google/uuid"
)

const defaultBuffer = 16

// BrokerOption is a functional option for Broker.
type BrokerOption func(*Broker)

// WithBuffer sets the per-subscriber channel buffer. Values below 1 are
// clamped to 1. Default: 16.
func WithBuffer(n int) BrokerOption {
	return func(b *Broker) {
		if n < 1 {
			n = 1
		}
		b.buffer = n
	}
}

// Broker fans out events to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event. That is acceptable here:
// a stream client that cannot keep up with door events is better served
// by dropping than by stalling the watcher.
//
// Broker is safe for concurrent use.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan Event
	buffer int
}

// NewBroker creates an empty Broker.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		subs:   make(map[uuid.UUID]chan Event),
		buffer: defaultBuffer,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its ID and receive
// channel. The channel is closed by Unsubscribe.
func (b *Broker) Subscribe() (uuid.UUID, <-chan Event) {
	id := uuid.New()
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown IDs are
// a no-op, so callers may defer it unconditionally.
func (b *Broker) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Publish delivers ev to every subscriber with buffer room and reports how
// many received it.
func (b *Broker) Publish(ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the current subscriber count.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
