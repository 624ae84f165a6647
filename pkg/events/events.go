package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventExecutionRunning  EventType = "execution.running"
	EventExecutionStopped  EventType = "execution.stopped"
	EventExecutionCleaned  EventType = "execution.cleaned"
	EventNetworksCreated   EventType = "networks.created"
	EventNetworksRemoved   EventType = "networks.removed"
	EventOperationFailed   EventType = "operation.failed"
	EventOperationComplete EventType = "operation.completed"
)

// DefaultHistory is the number of events kept for ListEvents
const DefaultHistory = 256

// Event is a lifecycle change of an execution on this host
type Event struct {
	ID           string            `json:"id"`
	Type         EventType         `json:"type"`
	Timestamp    time.Time         `json:"timestamp"`
	Emulation    string            `json:"emulation,omitempty"`
	IPFirstOctet int               `json:"ip_first_octet,omitempty"`
	Message      string            `json:"message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker fans events out to subscribers and keeps the most recent ones
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
	history     []*Event
	next        int
	full        bool
}

// NewBroker creates a broker remembering the last size events
func NewBroker(size int) *Broker {
	if size <= 0 {
		size = DefaultHistory
	}
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		history:     make([]*Event, size),
	}
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish records the event and delivers it to every subscriber whose
// buffer has room. It never blocks.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.history[b.next] = event
	b.next = (b.next + 1) % len(b.history)
	if b.next == 0 {
		b.full = true
	}

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// Recent returns up to limit events, oldest first. limit <= 0 returns
// the whole history.
func (b *Broker) Recent(limit int) []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*Event
	if b.full {
		out = append(out, b.history[b.next:]...)
	}
	out = append(out, b.history[:b.next]...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// ListRequest selects how many recent events to return
type ListRequest struct {
	Limit int `json:"limit"`
}

// List carries recent events
type List struct {
	Events []*Event `json:"events"`
}
