package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPublishSubscribe tests event delivery to subscribers
func TestPublishSubscribe(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(New(EventServingOpened, "gate opened", map[string]string{"reason": "forced_override"}))

	select {
	case ev := <-sub:
		assert.Equal(t, EventServingOpened, ev.Type)
		assert.Equal(t, "gate opened", ev.Message)
		assert.Equal(t, "forced_override", ev.Metadata["reason"])
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

// TestMultipleSubscribers tests fan-out
func TestMultipleSubscribers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	require.Equal(t, 2, b.SubscriberCount())

	b.Publish(New(EventStateTransition, "waiting -> serving_forced", nil))

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case ev := <-sub:
			assert.Equal(t, EventStateTransition, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

// TestUnsubscribe tests that unsubscribed channels close
func TestUnsubscribe(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)

	// Double unsubscribe must not panic
	b.Unsubscribe(sub)
}

// TestFullSubscriberSkipped tests that a slow subscriber does not block
// the broker
func TestFullSubscriberSkipped(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()

	// Overflow the per-subscriber buffer without draining
	for i := 0; i < 200; i++ {
		b.Publish(New(EventPeerUp, "peer up", nil))
	}

	// Broker must still accept publishes and deliver to a fresh subscriber
	fresh := b.Subscribe()
	b.Publish(New(EventPeerDown, "peer down", nil))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-fresh:
			if ev.Type == EventPeerDown {
				b.Unsubscribe(sub)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for delivery past a full subscriber")
		}
	}
}
