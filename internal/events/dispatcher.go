package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Event represents a domain event that can be dispatched to observers.
type Event struct {
	// Type is the event type (e.g., "floor:completed", "drop:obtained")
	Type string

	// Data is the payload flattened to a map, for observers that forward
	// events without knowing their types.
	Data map[string]interface{}

	// TypedData contains the event payload as a typed struct.
	// Observers should prefer this over Data.
	TypedData any

	// Context provides execution context for the event
	Context context.Context
}

// Observer defines the interface for objects that want to be notified of events.
type Observer interface {
	// OnEvent is called when an event is dispatched.
	// Returns an error if the observer fails to handle the event.
	OnEvent(event Event) error

	// GetName returns a human-readable name for this observer (for logging/debugging).
	GetName() string

	// ShouldHandle returns true if this observer should handle the given event type.
	ShouldHandle(eventType string) bool
}

// EventDispatcher implements the Observer pattern for event distribution.
// Thread-safe for concurrent use.
type EventDispatcher struct {
	observers []Observer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewEventDispatcher creates a new EventDispatcher. A nil logger uses slog.Default.
func NewEventDispatcher(logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

// Register adds an observer to the dispatcher.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.logger.Debug("registered observer", "observer", observer.GetName())
}

// Unregister removes an observer from the dispatcher.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			// Remove observer by replacing it with the last element and truncating
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			d.logger.Debug("unregistered observer", "observer", observer.GetName())
			return
		}
	}
}

func (d *EventDispatcher) snapshot() []Observer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	return observers
}

// Dispatch sends an event to all registered observers, sequentially in
// registration order. Observer errors are logged and do not stop dispatch.
func (d *EventDispatcher) Dispatch(event Event) {
	for _, observer := range d.snapshot() {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			d.logger.Warn("observer failed to handle event",
				"observer", observer.GetName(), "event", event.Type, "error", err)
		}
	}
}

// DispatchAsync notifies each observer in its own goroutine.
func (d *EventDispatcher) DispatchAsync(event Event) {
	for _, observer := range d.snapshot() {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		go func(obs Observer) {
			if err := obs.OnEvent(event); err != nil {
				d.logger.Warn("observer failed to handle event",
					"observer", obs.GetName(), "event", event.Type, "error", err)
			}
		}(observer)
	}
}

// ObserverCount returns the number of registered observers.
func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear removes all registered observers.
func (d *EventDispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = make([]Observer, 0)
}

// NewTypedEvent creates an Event with typed data. Data is filled from the
// JSON form of the payload.
func NewTypedEvent[T any](eventType string, data T, ctx context.Context) Event {
	return Event{
		Type:      eventType,
		Data:      structToMap(data),
		TypedData: data,
		Context:   ctx,
	}
}

func structToMap(v any) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	result := make(map[string]interface{})
	raw, err := json.Marshal(v)
	if err != nil {
		return result
	}
	// Non-object payloads leave the map empty.
	_ = json.Unmarshal(raw, &result)
	return result
}

// GetTypedData extracts typed data from an Event.
// Returns the zero value and false if the data is not of the expected type.
func GetTypedData[T any](event Event) (T, bool) {
	var zero T
	if event.TypedData == nil {
		return zero, false
	}
	typed, ok := event.TypedData.(T)
	return typed, ok
}
