// Package events moves domain events between the sync engine and its
// subscribers, in process. Publishing never blocks an import run.
package events

import (
	"context"
	"time"
)

// Event is implemented by everything the sync pipeline publishes.
type Event interface {
	// EventName identifies the event type on the bus.
	EventName() string
	// OccurredAt is the publication timestamp.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events. Embed it and
// implement EventName.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns the publication timestamp.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to subscribed handlers.
type Bus interface {
	// Publish dispatches to the event's handlers asynchronously. Handler
	// errors are logged, not returned.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits for every handler to finish.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the event name the event type
	// reports through EventName.
	Subscribe(eventName string, handler Handler)
}
