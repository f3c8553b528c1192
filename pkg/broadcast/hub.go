// Package broadcast fans session events out to currently connected stream
// subscribers. Delivery is best effort: there is no replay log, so a client
// that connects after an event was published never receives it and must poll
// a snapshot endpoint on (re)connect.
package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how many undelivered events a subscriber may hold
// before further events are dropped for it
const subscriberBuffer = 16

// Subscription is an ephemeral per-connection handle. It is not persisted;
// a disconnected client must resubscribe.
type Subscription struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Events    <-chan Event

	cancel func()
	once   sync.Once
}

// Close detaches the subscription from the hub and closes its event channel
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Hub manages per-session subscriber lists and event fan-out
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]map[uuid.UUID]chan Event

	heartbeatInterval time.Duration
	done              chan struct{}
	stopOnce          sync.Once
}

// NewHub creates a broadcast hub. A positive heartbeat interval starts a
// background ticker that emits heartbeat events to every subscriber so that
// clients can detect dead connections.
func NewHub(heartbeatInterval time.Duration) *Hub {
	h := &Hub{
		subscribers:       make(map[uuid.UUID]map[uuid.UUID]chan Event),
		heartbeatInterval: heartbeatInterval,
		done:              make(chan struct{}),
	}

	if heartbeatInterval > 0 {
		go h.heartbeatLoop()
	}

	return h
}

// Subscribe attaches a new subscriber to a session's event feed
func (h *Hub) Subscribe(sessionID uuid.UUID) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	subID := uuid.New()

	h.mu.Lock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[uuid.UUID]chan Event)
	}
	h.subscribers[sessionID][subID] = ch
	h.mu.Unlock()

	return &Subscription{
		ID:        subID,
		SessionID: sessionID,
		Events:    ch,
		cancel: func() {
			h.unsubscribe(sessionID, subID)
		},
	}
}

// Publish fans an event out to every open subscription for its session and
// returns the number of subscribers reached. Subscribers with full buffers
// are skipped rather than blocking the pipeline.
//
// Sends happen while holding the hub mutex. Subscriber channels are only ever
// closed under the same mutex, so a publish can never race a disconnect into
// a send on a closed channel. The sends are non-blocking, so holding the lock
// here never stalls.
func (h *Hub) Publish(event Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, ch := range h.subscribers[event.SessionID] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// SubscriberCount returns how many subscribers a session currently has
func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[sessionID])
}

// CloseSession detaches every subscriber of a session, closing their channels
func (h *Hub) CloseSession(sessionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers[sessionID] {
		close(ch)
	}
	delete(h.subscribers, sessionID)
}

// Stop shuts down the heartbeat loop and detaches all subscribers
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		for _, subs := range h.subscribers {
			for _, ch := range subs {
				close(ch)
			}
		}
		h.subscribers = make(map[uuid.UUID]map[uuid.UUID]chan Event)
	})
}

// unsubscribe removes a single subscriber and closes its channel. The close
// happens under the hub mutex so it cannot interleave with a publish.
func (h *Hub) unsubscribe(sessionID, subID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[sessionID]
	ch, exists := subs[subID]
	if !exists {
		return
	}

	close(ch)
	delete(subs, subID)
	if len(subs) == 0 {
		delete(h.subscribers, sessionID)
	}
}

// heartbeatLoop periodically publishes heartbeat events to all sessions
func (h *Hub) heartbeatLoop() {
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.mu.Lock()
			sessionIDs := make([]uuid.UUID, 0, len(h.subscribers))
			for sessionID := range h.subscribers {
				sessionIDs = append(sessionIDs, sessionID)
			}
			h.mu.Unlock()

			for _, sessionID := range sessionIDs {
				h.Publish(NewHeartbeat(sessionID))
			}
		}
	}
}
