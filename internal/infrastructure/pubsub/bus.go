package pubsub

import (
	"sync"

	"github.com/webtop-sh/webtop/internal/shared/types"
)

// TopicAll subscribes a handler to every event on the bus.
const TopicAll = "*"

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine and must not block.
type Handler func(types.Event)

// Bus is an explicit publish/subscribe service. The desktop composition
// root owns one instance and injects it into every component that needs
// to produce or observe application events; there is no package-level
// global bus.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// function. Use TopicAll to observe every event.
func (b *Bus) Subscribe(topic string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers an event to all handlers subscribed to its type,
// then to wildcard subscribers.
func (b *Bus) Publish(event types.Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.Type])+len(b.subs[TopicAll]))
	for _, fn := range b.subs[event.Type] {
		handlers = append(handlers, fn)
	}
	for _, fn := range b.subs[TopicAll] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}
