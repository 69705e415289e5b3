package handlers

import (
	"net/http"
	"strconv"

	"github.com/speaax/delve-companion/internal/api/response"
	"github.com/speaax/delve-companion/internal/droprates"
)

// FloorRates is the JSON form of one floor of the drop table.
type FloorRates struct {
	Floor   string             `json:"floor"`
	Overall float64            `json:"overall"`
	Chances map[string]float64 `json:"chances"` // keyed by item key
}

// DropRateHandler serves the drop table.
type DropRateHandler struct {
	table *droprates.Table
}

// NewDropRateHandler creates a new DropRateHandler.
func NewDropRateHandler(table *droprates.Table) *DropRateHandler {
	return &DropRateHandler{table: table}
}

// GetDropRates returns the tracked items and per-floor chances.
func (h *DropRateHandler) GetDropRates(w http.ResponseWriter, _ *http.Request) {
	items := h.table.Items()
	floors := make([]FloorRates, 0, len(h.table.Floors()))
	for _, f := range h.table.Floors() {
		rates, _ := h.table.RatesForFloor(f)
		fr := FloorRates{
			Floor:   strconv.Itoa(f),
			Overall: rates.Overall,
			Chances: make(map[string]float64, len(items)),
		}
		if f == droprates.OverflowIndex {
			fr.Floor = droprates.OverflowFloor().String()
		}
		for _, it := range items {
			fr.Chances[it.Key] = rates.Chance(it.ID)
		}
		floors = append(floors, fr)
	}

	response.Success(w, map[string]interface{}{
		"items":  items,
		"floors": floors,
	})
}
