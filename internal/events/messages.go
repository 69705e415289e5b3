package events

// Event types dispatched by the tracker.
const (
	TypeFloorCompleted = "floor:completed"
	TypeDropObtained   = "drop:obtained"
	TypeKillsSynced    = "kills:synced"
	TypeDropsSynced    = "drops:synced"
	TypeManualReset    = "manual:reset"
)

// FloorCompletedEvent is the payload for floor:completed events.
type FloorCompletedEvent struct {
	GameMode   string `json:"gameMode"`
	Floor      string `json:"floor"` // "1".."8" or "8+"
	TotalKills int    `json:"totalKills"`
}

// DropObtainedEvent is the payload for drop:obtained events.
type DropObtainedEvent struct {
	GameMode string `json:"gameMode"`
	ItemID   int    `json:"itemId"`
	ItemName string `json:"itemName,omitempty"` // empty for untracked items
	Obtained int    `json:"obtained"`           // all-time count after the drop
}

// KillsSyncedEvent is the payload for kills:synced events.
// Sent when an external scoreboard snapshot overwrote the all-time kills.
type KillsSyncedEvent struct {
	GameMode   string      `json:"gameMode"`
	LevelKills map[int]int `json:"levelKills"`
	WavesPast8 int         `json:"wavesPast8"`
}

// DropsSyncedEvent is the payload for drops:synced events.
type DropsSyncedEvent struct {
	GameMode string      `json:"gameMode"`
	Obtained map[int]int `json:"obtained"`
}

// ManualResetEvent is the payload for manual:reset events.
type ManualResetEvent struct {
	GameMode string `json:"gameMode"`
}
