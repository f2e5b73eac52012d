package pubsub

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Subscribe(ctx)
	b.Publish(UpdatedEvent, "layer-1")

	select {
	case ev := <-sub:
		require.Equal(t, UpdatedEvent, ev.Type)
		require.Equal(t, "layer-1", ev.Payload)
		require.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event, got none")
	}
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	b := NewBroker[int]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1 := b.Subscribe(ctx)
	sub2 := b.Subscribe(ctx)
	require.Equal(t, 2, b.SubscriberCount())

	b.Publish(CreatedEvent, 42)

	for _, sub := range []<-chan Event[int]{sub1, sub2} {
		select {
		case ev := <-sub:
			require.Equal(t, 42, ev.Payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroker_SubscribeAfterClose(t *testing.T) {
	b := NewBroker[string]()
	b.Close()

	sub := b.Subscribe(context.Background())

	// Channel from a closed broker is already closed.
	_, ok := <-sub
	require.False(t, ok)
}

func TestBroker_CancelRemovesSubscriber(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	b.Subscribe(ctx)
	require.Equal(t, 1, b.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool {
		return b.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestBroker_CloseIsIdempotent(t *testing.T) {
	b := NewBroker[string]()
	b.Close()
	b.Close() // must not panic

	// Publish after close is a no-op.
	b.Publish(DeletedEvent, "gone")
}

func TestBroker_FullSubscriberDropsAndCounts(t *testing.T) {
	b := NewBroker[int]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Subscribe(ctx)
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(UpdatedEvent, i)
	}
	require.Equal(t, uint64(5), b.Dropped())

	// Buffered events are still delivered in order.
	ev := <-sub
	require.Equal(t, 0, ev.Payload)
}

func TestBroker_CloseReleasesCleanupGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()

	b := NewBroker[int]()
	for i := 0; i < 8; i++ {
		b.Subscribe(context.Background())
	}
	require.GreaterOrEqual(t, runtime.NumGoroutine(), before+8)

	// Subscriber contexts never cancel; Close alone must release the
	// per-subscriber goroutines.
	b.Close()
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+1
	}, time.Second, 10*time.Millisecond)
}
