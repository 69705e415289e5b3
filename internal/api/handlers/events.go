package handlers

import (
	"net/http"

	"github.com/speaax/delve-companion/internal/api/response"
	"github.com/speaax/delve-companion/internal/storage/models"
	"github.com/speaax/delve-companion/internal/tracker"
)

// FloorRequest records one floor completion.
type FloorRequest struct {
	Mode  string `json:"mode" validate:"gamemode"`
	Floor string `json:"floor" validate:"required,floor"`
}

// DropRequest records one obtained unique.
type DropRequest struct {
	Mode   string `json:"mode" validate:"gamemode"`
	ItemID int    `json:"item_id" validate:"required,gt=0"`
}

// KillSyncRequest is a scoreboard snapshot of all-time kills.
type KillSyncRequest struct {
	Mode       string      `json:"mode" validate:"gamemode"`
	LevelKills map[int]int `json:"level_kills" validate:"required,dive,keys,min=1,max=8,endkeys,min=0"`
	WavesPast8 int         `json:"waves_past_8" validate:"min=0"`
}

// DropSyncRequest is a collection log snapshot of obtained uniques.
type DropSyncRequest struct {
	Mode     string      `json:"mode" validate:"gamemode"`
	Obtained map[int]int `json:"obtained" validate:"required,dive,keys,gt=0,endkeys,min=0"`
}

// EventHandler accepts events from external collaborators.
type EventHandler struct {
	tracker *tracker.Tracker
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(t *tracker.Tracker) *EventHandler {
	return &EventHandler{tracker: t}
}

// RecordFloor handles POST /events/floor.
func (h *EventHandler) RecordFloor(w http.ResponseWriter, r *http.Request) {
	var req FloorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.tracker.OnFloorCompleted(r.Context(), req.Mode, req.Floor); err != nil {
		writeTrackerError(w, err)
		return
	}
	response.Created(w, h.tracker.GetProfile(req.Mode, models.ViewSession))
}

// RecordDrop handles POST /events/drop.
func (h *EventHandler) RecordDrop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.tracker.OnDropObtained(r.Context(), req.Mode, req.ItemID); err != nil {
		writeTrackerError(w, err)
		return
	}
	response.Created(w, h.tracker.GetProfile(req.Mode, models.ViewSession))
}

// SyncKills handles POST /sync/kills.
func (h *EventHandler) SyncKills(w http.ResponseWriter, r *http.Request) {
	var req KillSyncRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.tracker.OnAuthoritativeKillSync(r.Context(), req.Mode, req.LevelKills, req.WavesPast8); err != nil {
		writeTrackerError(w, err)
		return
	}
	response.Success(w, h.tracker.GetProfile(req.Mode, models.ViewAll))
}

// SyncDrops handles POST /sync/drops.
func (h *EventHandler) SyncDrops(w http.ResponseWriter, r *http.Request) {
	var req DropSyncRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.tracker.OnAuthoritativeDropSync(r.Context(), req.Mode, req.Obtained); err != nil {
		writeTrackerError(w, err)
		return
	}
	response.Success(w, h.tracker.GetProfile(req.Mode, models.ViewAll))
}
