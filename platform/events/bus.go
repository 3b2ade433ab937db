package events

import (
	"context"
	"sync"

	"agencydesk_backend/platform/logger"

	"go.uber.org/multierr"
)

// InMemoryBus is a process-local Bus implementation. Publish dispatches each
// handler on its own goroutine; handler errors are logged, never propagated.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously. The caller
// does not wait for handlers and never observes their errors.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, handler := range b.handlersFor(event.EventName()) {
		h := handler
		go func() {
			// Detach from the request context so in-flight handlers survive
			// the originating request.
			if err := h.Handle(context.WithoutCancel(ctx), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}()
	}
}

// PublishSync dispatches the event and waits for all handlers, returning the
// combined handler errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs error
	for _, handler := range b.handlersFor(event.EventName()) {
		if err := handler.Handle(ctx, event); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	registered := b.handlers[eventName]
	out := make([]Handler, len(registered))
	copy(out, registered)
	return out
}

var _ Bus = (*InMemoryBus)(nil)
