package models

import "time"

// EventKind classifies a ledger event in the history log.
type EventKind string

const (
	EventFloorCompleted EventKind = "floor_completed"
	EventDropObtained   EventKind = "drop_obtained"
	EventKillsSynced    EventKind = "kills_synced"
	EventDropsSynced    EventKind = "drops_synced"
	EventManualReset    EventKind = "manual_reset"
)

// DelveEvent is one row of the history log.
type DelveEvent struct {
	ID        string
	GameMode  string
	Kind      EventKind
	Floor     *string // Nullable: "1".."8" or "8+"
	ItemID    *int    // Nullable
	CreatedAt time.Time
}
