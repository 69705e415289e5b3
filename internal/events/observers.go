package events

import (
	"log/slog"
)

// LoggingObserver logs all events for debugging purposes.
type LoggingObserver struct {
	name    string
	verbose bool
	logger  *slog.Logger
}

// NewLoggingObserver creates a new observer that logs events.
func NewLoggingObserver(logger *slog.Logger, verbose bool) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{
		name:    "LoggingObserver",
		verbose: verbose,
		logger:  logger,
	}
}

// OnEvent logs the event details.
func (o *LoggingObserver) OnEvent(event Event) error {
	if o.verbose {
		o.logger.Info("event", "type", event.Type, "data", event.Data)
	} else {
		o.logger.Info("event", "type", event.Type)
	}
	return nil
}

// GetName returns the observer's name.
func (o *LoggingObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events (logs everything).
func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return true
}

// FuncObserver adapts a function to the Observer interface, optionally
// limited to a set of event types.
type FuncObserver struct {
	name  string
	fn    func(Event) error
	types map[string]bool
}

// NewFuncObserver returns an observer that calls fn for the given types,
// or for every type when none are given.
func NewFuncObserver(name string, fn func(Event) error, types ...string) *FuncObserver {
	o := &FuncObserver{name: name, fn: fn}
	if len(types) > 0 {
		o.types = make(map[string]bool, len(types))
		for _, t := range types {
			o.types[t] = true
		}
	}
	return o
}

func (o *FuncObserver) OnEvent(event Event) error { return o.fn(event) }

func (o *FuncObserver) GetName() string { return o.name }

func (o *FuncObserver) ShouldHandle(eventType string) bool {
	return o.types == nil || o.types[eventType]
}
