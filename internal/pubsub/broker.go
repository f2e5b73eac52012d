package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Subscriber channels are buffered so a subscriber that stops draining
// loses events instead of stalling publishers.
const subscriberBuffer = 64

// Broker fans out typed events to any number of subscribers.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event[T]
	nextID uint64
	done   chan struct{}
	closed bool

	dropped atomic.Uint64
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[uint64]chan Event[T]),
		done: make(chan struct{}),
	}
}

// Subscribe registers a new subscriber. The returned channel closes when
// ctx is cancelled or the broker shuts down. Subscribing to a closed
// broker yields an already-closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Event[T], subscriberBuffer)
	b.subs[id] = ch

	// The cleanup goroutine must not outlive the broker: Close releases
	// it even when the subscriber context never cancels.
	go func() {
		select {
		case <-b.done:
			return
		case <-ctx.Done():
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return
		}
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}()

	return ch
}

// Publish delivers an event to every subscriber without blocking.
// Deliveries to full subscriber channels are discarded and counted.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	ev := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many events were discarded because a subscriber
// fell behind.
func (b *Broker[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Close shuts down the broker and closes every subscriber channel.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// SubscriberCount reports the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
