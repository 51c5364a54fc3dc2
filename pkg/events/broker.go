package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// subscriberBuffer is how many undelivered payloads a subscriber may queue
// before new ones are dropped for it.
const subscriberBuffer = 16

// Broker fans payloads out to the subscribers of this process.
type Broker struct {
	mu      sync.RWMutex
	subs    map[uint64]chan []byte
	nextID  uint64
	dropped atomic.Int64
	logger  *slog.Logger
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[uint64]chan []byte),
		logger: slog.Default().With("component", "events-broker"),
	}
}

// Subscribe registers a subscriber. The returned channel is closed by
// unsubscribe, which is safe to call more than once.
func (b *Broker) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Broadcast delivers payload to every subscriber without blocking. A
// subscriber whose buffer is full misses this payload.
func (b *Broker) Broadcast(payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- payload:
		default:
			b.dropped.Add(1)
			b.logger.Warn("Dropping change signal for slow subscriber", "subscriber", id)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}
