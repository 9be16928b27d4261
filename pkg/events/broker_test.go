package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(TypeAccessDecision)
	defer sub.Close()

	b.Publish(TypeAccessDecision, map[string]string{"agent": "a1"})

	select {
	case evt := <-sub.Events():
		assert.Equal(t, TypeAccessDecision, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeFiltersByType(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(TypeAgentQuarantined)
	defer sub.Close()

	b.Publish(TypeAgentReleased, nil)

	select {
	case <-sub.Events():
		t.Fatal("should not have received a filtered-out event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeWithNoTypesReceivesEverything(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(TypeSecurityAlert, nil)
	select {
	case evt := <-sub.Events():
		assert.Equal(t, TypeSecurityAlert, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestCloseStopsDeliveryAndClosesChannel(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(TypeSecurityAlert)
	sub.Close()

	b.Publish(TypeSecurityAlert, nil)
	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestPublishNeverBlocksOnFullSubscriberBuffer(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(TypePerformanceMetrics)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*2; i++ {
			b.Publish(TypePerformanceMetrics, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}

func TestSubscriberCountTracksActiveSubscriptions(t *testing.T) {
	b := NewBroker()
	require.Equal(t, 0, b.SubscriberCount())
	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())
	sub.Close()
	assert.Equal(t, 0, b.SubscriberCount())
}
