package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler handles a published event.
type Handler func(context.Context, Event) error

// Subscription identifies a registered handler for later removal.
type Subscription struct {
	eventType EventType
	id        uint64
}

// Bus is a process-local synchronous publish/subscribe primitive. It
// carries no buffer and no retry: an event published with no
// subscribers is simply lost, which is acceptable because clients
// recover via snapshot fetch, never via replay.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventType]map[uint64]Handler
	logger   *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType]map[uint64]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event type and returns a
// handle usable with Unsubscribe.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]Handler)
	}
	b.handlers[eventType][b.nextID] = handler
	return Subscription{eventType: eventType, id: b.nextID}
}

// Unsubscribe removes a handler. Removing an unknown or already-removed
// subscription is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[sub.eventType], sub.id)
}

// Publish synchronously invokes every handler registered for the event
// type. A handler error or panic is logged and never propagates to the
// publisher or blocks delivery to the remaining handlers.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, handler := range b.handlers[event.Type] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.invoke(ctx, handler, event)
	}
}

func (b *Bus) invoke(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		b.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
