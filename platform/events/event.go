// Package events carries domain events between modules over an in-process
// bus. Publishers stay unaware of who listens, which keeps side effects
// (emails, logs) out of the core services.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event put on the bus.
type Event interface {
	// EventName identifies the event type. Handlers subscribe by this name.
	EventName() string
	// OccurredAt is the moment the event was raised.
	OccurredAt() time.Time
}

// BaseEvent holds the fields every event shares. Embed it and implement
// EventName on the concrete type.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// Handler reacts to events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes published events to their subscribed handlers.
type Bus interface {
	// Publish delivers the event without waiting for its handlers. Failures
	// are the handlers' problem; the publisher has already moved on.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and returns the handlers' combined
	// error, for callers that need the outcome (scheduled jobs, tests).
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the named event type, matching
	// Event.EventName.
	Subscribe(eventName string, handler Handler)
}
