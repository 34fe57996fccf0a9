package events

import (
	"context"
	"errors"
	"sync"
)

// EventHandler reacts to one event. Audit sinks and the notification
// service are the handlers in this process.
type EventHandler func(context.Context, Event) error

// Dispatcher fans recorded audit entries and analysis results out to their
// subscribers. Publish returns only after every subscriber has run, so an
// audit entry reaches its mirrors before the request that caused it returns.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type syncDispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a dispatcher that runs subscribers on the
// publishing goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{handlers: make(map[EventType][]EventHandler)}
}

// Publish runs the subscribers of event.Type in the order they subscribed.
// A failing mirror does not stop the next one; all failures come back joined.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subscribers := d.handlers[event.Type]
	d.mu.RUnlock()

	var errs []error
	for _, handle := range subscribers {
		if err := handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe adds handler after the existing subscribers of eventType.
func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Capped so append always copies; Publish iterates its snapshot unlocked.
	current := d.handlers[eventType]
	d.handlers[eventType] = append(current[:len(current):len(current)], handler)
}
