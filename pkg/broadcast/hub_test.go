package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub(0)
	defer hub.Stop()

	sessionID := uuid.New()
	sub := hub.Subscribe(sessionID)
	defer sub.Close()

	delivered := hub.Publish(NewSessionStarted(sessionID))
	assert.Equal(t, 1, delivered)

	select {
	case event := <-sub.Events:
		assert.Equal(t, KindSessionStarted, event.Kind)
		assert.Equal(t, sessionID, event.SessionID)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestPublishIsScopedToSession(t *testing.T) {
	hub := NewHub(0)
	defer hub.Stop()

	first := hub.Subscribe(uuid.New())
	defer first.Close()
	second := hub.Subscribe(uuid.New())
	defer second.Close()

	delivered := hub.Publish(NewSessionStarted(first.SessionID))
	assert.Equal(t, 1, delivered)

	select {
	case <-second.Events:
		t.Fatal("event leaked to another session's subscriber")
	default:
	}
}

func TestNoRetroactiveDelivery(t *testing.T) {
	hub := NewHub(0)
	defer hub.Stop()

	sessionID := uuid.New()

	// Published before anyone subscribes, so nobody ever sees it
	delivered := hub.Publish(NewSessionStarted(sessionID))
	assert.Equal(t, 0, delivered)

	sub := hub.Subscribe(sessionID)
	defer sub.Close()

	select {
	case <-sub.Events:
		t.Fatal("late subscriber received a replayed event")
	default:
	}
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	hub := NewHub(0)
	defer hub.Stop()

	sessionID := uuid.New()
	sub := hub.Subscribe(sessionID)
	defer sub.Close()

	// Fill the subscriber's buffer without draining it
	for i := 0; i < subscriberBuffer; i++ {
		assert.Equal(t, 1, hub.Publish(NewHeartbeat(sessionID)))
	}

	// The next publish cannot be buffered and is dropped, not blocked on
	delivered := hub.Publish(NewHeartbeat(sessionID))
	assert.Equal(t, 0, delivered)
}

func TestSubscriptionClose(t *testing.T) {
	hub := NewHub(0)
	defer hub.Stop()

	sessionID := uuid.New()
	sub := hub.Subscribe(sessionID)
	require.Equal(t, 1, hub.SubscriberCount(sessionID))

	sub.Close()
	assert.Equal(t, 0, hub.SubscriberCount(sessionID))

	// Closing twice is safe
	sub.Close()

	_, open := <-sub.Events
	assert.False(t, open)
}

func TestCloseSessionDetachesSubscribers(t *testing.T) {
	hub := NewHub(0)
	defer hub.Stop()

	sessionID := uuid.New()
	first := hub.Subscribe(sessionID)
	second := hub.Subscribe(sessionID)
	require.Equal(t, 2, hub.SubscriberCount(sessionID))

	hub.CloseSession(sessionID)
	assert.Equal(t, 0, hub.SubscriberCount(sessionID))

	_, open := <-first.Events
	assert.False(t, open)
	_, open = <-second.Events
	assert.False(t, open)
}

func TestConcurrentPublishAndDisconnect(t *testing.T) {
	hub := NewHub(0)
	defer hub.Stop()

	sessionID := uuid.New()

	// Hammer the session with publishes while subscribers churn. A publish
	// must never send into a channel a disconnect just closed.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					hub.Publish(NewHeartbeat(sessionID))
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		sub := hub.Subscribe(sessionID)
		if i%3 == 0 {
			hub.CloseSession(sessionID)
		} else {
			sub.Close()
		}
	}

	close(done)
	wg.Wait()

	assert.Equal(t, 0, hub.SubscriberCount(sessionID))
}

func TestHeartbeat(t *testing.T) {
	hub := NewHub(10 * time.Millisecond)
	defer hub.Stop()

	sub := hub.Subscribe(uuid.New())
	defer sub.Close()

	select {
	case event := <-sub.Events:
		assert.Equal(t, KindHeartbeat, event.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a heartbeat event")
	}
}

func TestStopClosesEverything(t *testing.T) {
	hub := NewHub(0)

	sub := hub.Subscribe(uuid.New())
	hub.Stop()

	_, open := <-sub.Events
	assert.False(t, open)

	// Stop is idempotent
	hub.Stop()
}
