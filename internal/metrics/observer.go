package metrics

import (
	"strconv"

	"github.com/speaax/delve-companion/internal/events"
)

// Observer records tracker events as Prometheus metrics.
type Observer struct{}

// NewObserver creates a metrics observer.
func NewObserver() *Observer {
	return &Observer{}
}

// OnEvent increments the counters for event.
func (o *Observer) OnEvent(event events.Event) error {
	EventsDispatched.WithLabelValues(event.Type).Inc()

	switch data := event.TypedData.(type) {
	case events.FloorCompletedEvent:
		FloorsCompleted.WithLabelValues(data.GameMode, data.Floor).Inc()
	case events.DropObtainedEvent:
		item := data.ItemName
		if item == "" {
			item = strconv.Itoa(data.ItemID)
		}
		DropsObtained.WithLabelValues(data.GameMode, item).Inc()
	case events.KillsSyncedEvent:
		Syncs.WithLabelValues(data.GameMode, SyncKindKills).Inc()
	case events.DropsSyncedEvent:
		Syncs.WithLabelValues(data.GameMode, SyncKindDrops).Inc()
	case events.ManualResetEvent:
		ManualResets.WithLabelValues(data.GameMode).Inc()
	}
	return nil
}

// GetName returns the observer name.
func (o *Observer) GetName() string {
	return "MetricsObserver"
}

// ShouldHandle accepts every event.
func (o *Observer) ShouldHandle(string) bool {
	return true
}
