package mcp

import (
	"sync"
	"time"
)

// NotificationEvent is the base interface implemented by every value the
// notifications bus fans out to subscribers (§4.I "notifications stream"),
// adapted from the teacher's internal/events.Event.
type NotificationEvent interface {
	Method() NotificationMethod
	Timestamp() time.Time
}

type baseNotificationEvent struct {
	method NotificationMethod
	at     time.Time
}

func (e baseNotificationEvent) Method() NotificationMethod { return e.method }
func (e baseNotificationEvent) Timestamp() time.Time       { return e.at }

func newBaseEvent(m NotificationMethod) baseNotificationEvent {
	return baseNotificationEvent{method: m, at: time.Now()}
}

// ResourcesListChangedEvent fans out notifications/resources/list_changed.
type ResourcesListChangedEvent struct{ baseNotificationEvent }

// ResourcesUpdatedEvent fans out notifications/resources/updated.
type ResourcesUpdatedEvent struct {
	baseNotificationEvent
	URI string
}

// PromptsListChangedEvent fans out notifications/prompts/list_changed.
type PromptsListChangedEvent struct{ baseNotificationEvent }

// ToolsListChangedEvent fans out notifications/tools/list_changed.
type ToolsListChangedEvent struct{ baseNotificationEvent }

// LoggingMessageEvent fans out notifications/message.
type LoggingMessageEvent struct {
	baseNotificationEvent
	Params LoggingMessageParams
}

// NotificationHandler receives fanned-out notification events.
type NotificationHandler func(NotificationEvent)

// notificationBus is a goroutine-safe multi-producer/single-consumer-class
// pub/sub, adapted from the teacher's internal/events.Bus: a buffered
// channel plus a dispatch loop, so a slow subscriber cannot block the
// dispatcher that published the event (§5 "Shared resource policy").
type notificationBus struct {
	mu       sync.RWMutex
	handlers []NotificationHandler
	ch       chan NotificationEvent
	done     chan struct{}
	closeOnce sync.Once
}

func newNotificationBus() *notificationBus {
	b := &notificationBus{
		ch:   make(chan NotificationEvent, 256),
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *notificationBus) run() {
	for {
		select {
		case event := <-b.ch:
			b.dispatch(event)
		case <-b.done:
			return
		}
	}
}

func (b *notificationBus) dispatch(event NotificationEvent) {
	b.mu.RLock()
	handlers := make([]NotificationHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if h != nil {
			h(event)
		}
	}
}

// Subscribe registers a handler and returns an unsubscribe function.
func (b *notificationBus) Subscribe(h NotificationHandler) func() {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	idx := len(b.handlers) - 1
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.handlers) {
			b.handlers[idx] = nil
		}
	}
}

// Publish is non-blocking; a full buffer drops the event rather than
// stalling the dispatcher goroutine that produced it.
func (b *notificationBus) Publish(event NotificationEvent) {
	select {
	case b.ch <- event:
	default:
	}
}

// Channel exposes the raw event channel for consumers that want to range
// over it directly (e.g. a bubbletea Cmd) instead of subscribing.
func (b *notificationBus) Channel() <-chan NotificationEvent {
	return b.ch
}

func (b *notificationBus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
