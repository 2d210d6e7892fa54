package viewer

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snarg/transcript-viewer/internal/metrics"
)

// Event types published on the bus.
const (
	EventTimeline = "timeline"
	EventBuckets  = "buckets"
	EventLoad     = "load"
)

// Event is one server-sent event.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventBus provides pub-sub event distribution for SSE subscribers.
// It maintains a ring buffer for replay on reconnect.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	nextID      uint64
	seq         atomic.Uint64

	ring     []Event
	ringSize int
	ringHead int
	ringMu   sync.RWMutex
}

type subscriber struct {
	ch        chan Event
	sessionID string
}

// NewEventBus creates an event bus with the given ring buffer size.
func NewEventBus(ringSize int) *EventBus {
	if ringSize < 1 {
		ringSize = 1
	}
	return &EventBus{
		subscribers: make(map[uint64]subscriber),
		ring:        make([]Event, ringSize),
		ringSize:    ringSize,
	}
}

// Subscribe registers a subscriber for one session's events ("" for all) and
// returns a channel and cancel function.
func (eb *EventBus) Subscribe(sessionID string) (<-chan Event, func()) {
	eb.mu.Lock()
	id := eb.nextID
	eb.nextID++
	ch := make(chan Event, 64)
	eb.subscribers[id] = subscriber{ch: ch, sessionID: sessionID}
	eb.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			eb.mu.Lock()
			delete(eb.subscribers, id)
			eb.mu.Unlock()
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers.
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// ReplaySince returns buffered events published after lastEventID.
func (eb *EventBus) ReplaySince(lastEventID, sessionID string) []Event {
	eb.ringMu.RLock()
	defer eb.ringMu.RUnlock()

	var events []Event
	found := lastEventID == ""

	for i := 0; i < eb.ringSize; i++ {
		idx := (eb.ringHead + i) % eb.ringSize
		e := eb.ring[idx]
		if e.ID == "" {
			continue
		}
		if !found {
			if e.ID == lastEventID {
				found = true
			}
			continue
		}
		if matches(e, sessionID) {
			events = append(events, e)
		}
	}
	return events
}

// Publish sends an event to all matching subscribers and adds it to the ring
// buffer. A payload that cannot be encoded is not published.
func (eb *EventBus) Publish(eventType, sessionID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	seq := eb.seq.Add(1)
	event := Event{
		ID:        fmt.Sprintf("%d-%d", time.Now().UnixMilli(), seq),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}

	eb.ringMu.Lock()
	eb.ring[eb.ringHead] = event
	eb.ringHead = (eb.ringHead + 1) % eb.ringSize
	eb.ringMu.Unlock()

	eb.mu.RLock()
	for _, sub := range eb.subscribers {
		if matches(event, sub.sessionID) {
			select {
			case sub.ch <- event:
			default:
				// Drop if subscriber is slow
			}
		}
	}
	eb.mu.RUnlock()

	metrics.EventsPublishedTotal.Inc()
	return nil
}

func matches(e Event, sessionID string) bool {
	return sessionID == "" || e.SessionID == sessionID
}
