package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every subscriber", func(t *testing.T) {
		t.Parallel()

		b := NewBroker[string]()
		t.Cleanup(b.Shutdown)

		ctx := t.Context()
		ch1 := b.Subscribe(ctx)
		ch2 := b.Subscribe(ctx)
		require.Equal(t, 2, b.SubscriberCount())

		b.Publish(DispatchedEvent, "save", "payload")

		for _, ch := range []<-chan Event[string]{ch1, ch2} {
			select {
			case ev := <-ch:
				require.Equal(t, Event[string]{Type: DispatchedEvent, Key: "save", Payload: "payload"}, ev)
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for event")
			}
		}
	})

	t.Run("cancelled subscriber is removed", func(t *testing.T) {
		t.Parallel()

		b := NewBroker[int]()
		t.Cleanup(b.Shutdown)

		ctx, cancel := context.WithCancel(t.Context())
		ch := b.Subscribe(ctx)
		cancel()

		select {
		case _, ok := <-ch:
			require.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel was not closed")
		}
		require.Zero(t, b.SubscriberCount())
	})

	t.Run("shutdown closes subscribers", func(t *testing.T) {
		t.Parallel()

		b := NewBroker[int]()
		ch := b.Subscribe(t.Context())
		b.Shutdown()
		b.Shutdown()

		_, ok := <-ch
		require.False(t, ok)

		late := b.Subscribe(t.Context())
		_, ok = <-late
		require.False(t, ok)

		b.Publish(DroppedEvent, "k", 1)
	})

	t.Run("slow subscriber does not block", func(t *testing.T) {
		t.Parallel()

		b := NewBroker[int]()
		t.Cleanup(b.Shutdown)
		_ = b.Subscribe(t.Context())

		for i := range bufferSize * 2 {
			b.Publish(DispatchedEvent, "k", i)
		}
	})
}
