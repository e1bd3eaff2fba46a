package events

import (
	"sync"
	"time"
)

// Change kinds published by the document store.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Change describes one mutation of a collection.
type Change struct {
	Collection string
	Kind       string
	DocumentID string
	OccurredAt time.Time
}

// Handler reacts to a change notification.
type Handler func(change Change)

// Notifier provides in-process pub/sub keyed by collection name.
// Subscribers receive every change to their collection; cancellation is
// explicit and idempotent.
type Notifier struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string]map[uint64]Handler
}

// NewNotifier constructs an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{handlers: make(map[string]map[uint64]Handler)}
}

// Subscribe registers a handler for a collection and returns its cancel
// func. The cancel func is safe to call more than once.
func (n *Notifier) Subscribe(collection string, handler Handler) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	if n.handlers[collection] == nil {
		n.handlers[collection] = make(map[uint64]Handler)
	}
	n.handlers[collection][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.handlers[collection], id)
		})
	}
}

// Publish notifies every subscriber of the change's collection. Handlers
// run synchronously; the caller decides the concurrency model.
func (n *Notifier) Publish(change Change) {
	if n == nil {
		return
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now()
	}

	n.mu.RLock()
	handlers := make([]Handler, 0, len(n.handlers[change.Collection]))
	for _, h := range n.handlers[change.Collection] {
		handlers = append(handlers, h)
	}
	n.mu.RUnlock()

	for _, handler := range handlers {
		handler(change)
	}
}

// SubscriberCount reports the live subscriptions for a collection.
func (n *Notifier) SubscriberCount(collection string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.handlers[collection])
}
