package websocket

import (
	"github.com/speaax/delve-companion/internal/events"
)

// WebSocketObserver forwards dispatched events to WebSocket clients.
type WebSocketObserver struct {
	name string
	hub  *Hub
}

// NewWebSocketObserver creates a new observer that forwards events to WebSocket clients.
func NewWebSocketObserver(hub *Hub) *WebSocketObserver {
	return &WebSocketObserver{
		name: "WebSocketObserver",
		hub:  hub,
	}
}

// OnEvent forwards the event to all connected WebSocket clients. Typed
// payloads are sent as-is so clients see the JSON field names.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		return nil
	}

	wsEvent := Event{
		Type: event.Type,
		Data: event.Data,
	}
	if event.TypedData != nil {
		wsEvent.Data = event.TypedData
	}

	o.hub.BroadcastEvent(wsEvent)
	return nil
}

// GetName returns the observer's name.
func (o *WebSocketObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events.
func (o *WebSocketObserver) ShouldHandle(string) bool {
	return true
}

var _ events.Observer = (*WebSocketObserver)(nil)
