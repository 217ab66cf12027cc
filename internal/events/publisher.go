package events

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/framefx/internal/logger"
)

const (
	// PluginRegistered is emitted by the registry after an effect is stored.
	PluginRegistered = "plugin.registered"
	// PluginUnregistered is emitted after an effect was cleaned up and removed.
	PluginUnregistered = "plugin.unregistered"
	// PluginLoaded is emitted by the manager for every effect that became available.
	PluginLoaded = "plugin.loaded"
	// EffectChanged is emitted when the current effect of a session changes.
	EffectChanged = "effect.changed"
	// ParameterChanged is emitted when a parameter of the current effect is set.
	ParameterChanged = "parameter.changed"
	// VisibilityChanged is emitted when dependency rules produced new results.
	VisibilityChanged = "visibility.changed"
)

// Event is a notification with a free-form payload.
type Event struct {
	Type    string
	Payload map[string]any
}

// Handler processes an event. A returned error is logged; it never stops
// delivery to the remaining handlers.
type Handler func(Event) error

// Subscription represents a registered handler.
type Subscription interface {
	Unsubscribe()
}

// Publisher delivers events synchronously in subscription order. Handler
// failures and panics are logged and swallowed.
type Publisher struct {
	log    *logger.Logger
	subs   map[string][]subscriptionEntry
	nextID int
	mu     sync.RWMutex
}

// NewPublisher creates a publisher that writes each event as a debug entry.
func NewPublisher(log *logger.Logger) *Publisher {
	return &Publisher{
		log:  log,
		subs: make(map[string][]subscriptionEntry),
	}
}

// Publish delivers the event to every handler subscribed to its type.
func (p *Publisher) Publish(event Event) {
	if p == nil || event.Type == "" {
		return
	}

	p.mu.RLock()
	handlers := append([]subscriptionEntry(nil), p.subs[event.Type]...)
	p.mu.RUnlock()

	p.log.Debug("event", p.fields(event)...)

	for _, entry := range handlers {
		if entry.handler == nil {
			continue
		}
		if err := p.invoke(entry.handler, event); err != nil {
			p.log.Warn("event handler failed", "event_type", event.Type, "error", err.Error())
		}
	}
}

// Subscribe registers a handler for the provided event type.
func (p *Publisher) Subscribe(eventType string, handler Handler) Subscription {
	if p == nil || handler == nil {
		return noopSubscription{}
	}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[eventType] = append(p.subs[eventType], subscriptionEntry{id: id, handler: handler})
	p.mu.Unlock()

	return subscription{
		cancel: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			handlers := p.subs[eventType]
			for i, entry := range handlers {
				if entry.id == id {
					p.subs[eventType] = append(handlers[:i:i], handlers[i+1:]...)
					break
				}
			}
		},
	}
}

func (p *Publisher) invoke(handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(event)
}

func (p *Publisher) fields(event Event) []any {
	fields := []any{"event_type", event.Type}
	keys := make([]string, 0, len(event.Payload))
	for key := range event.Payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fields = append(fields, key, event.Payload[key])
	}
	return fields
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriptionEntry struct {
	id      int
	handler Handler
}
