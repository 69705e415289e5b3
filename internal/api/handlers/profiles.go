package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/speaax/delve-companion/internal/api/response"
	"github.com/speaax/delve-companion/internal/charts"
	"github.com/speaax/delve-companion/internal/droprates"
	"github.com/speaax/delve-companion/internal/storage/models"
	"github.com/speaax/delve-companion/internal/tracker"
)

// ProfileHandler handles profile and statistics requests.
type ProfileHandler struct {
	tracker *tracker.Tracker
	modes   map[droprates.ItemID]models.DisplayMode
}

// NewProfileHandler creates a new ProfileHandler. modes controls which items
// appear on charts; nil shows everything.
func NewProfileHandler(t *tracker.Tracker, modes map[droprates.ItemID]models.DisplayMode) *ProfileHandler {
	return &ProfileHandler{tracker: t, modes: modes}
}

// ListModes returns every game mode with recorded data.
func (h *ProfileHandler) ListModes(w http.ResponseWriter, _ *http.Request) {
	modes := h.tracker.Modes()
	if modes == nil {
		modes = []string{}
	}
	response.Success(w, map[string]interface{}{"modes": modes})
}

func (h *ProfileHandler) params(w http.ResponseWriter, r *http.Request) (string, models.View, bool) {
	mode := tracker.NormalizeMode(chi.URLParam(r, "mode"))
	view, err := tracker.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		response.BadRequest(w, err)
		return "", view, false
	}
	return mode, view, true
}

// GetProfile returns the raw counts of one profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	mode, view, ok := h.params(w, r)
	if !ok {
		return
	}
	response.Success(w, h.tracker.GetProfile(mode, view))
}

// GetSummary returns the profile with expected drops and luck.
func (h *ProfileHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	mode, view, ok := h.params(w, r)
	if !ok {
		return
	}
	response.Success(w, h.tracker.Summary(mode, view))
}

// GetChart renders the profile as an HTML chart. ?kind=progress draws
// expected against actual drops; the default is the luck chart.
func (h *ProfileHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	mode, view, ok := h.params(w, r)
	if !ok {
		return
	}

	summary := h.tracker.Summary(mode, view)
	rows := charts.RowsFromReport(summary.Luck, h.modes)

	cfg := charts.DefaultChartConfig()
	cfg.Subtitle = fmt.Sprintf("%s / %s, %d kills", mode, view, summary.TotalKills)

	var buf bytes.Buffer
	var err error
	switch kind := strings.ToLower(r.URL.Query().Get("kind")); kind {
	case "", "luck":
		cfg.Title = "Delve luck"
		err = charts.RenderLuckChart(rows, cfg, &buf)
	case "progress":
		cfg.Title = "Delve drops"
		err = charts.RenderProgressChart(rows, cfg, &buf)
	default:
		response.BadRequest(w, fmt.Errorf("unknown chart kind %q", kind))
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ResetManual clears the manual profile of a mode.
func (h *ProfileHandler) ResetManual(w http.ResponseWriter, r *http.Request) {
	mode := tracker.NormalizeMode(chi.URLParam(r, "mode"))
	if err := h.tracker.ResetManual(r.Context(), mode); err != nil {
		writeTrackerError(w, err)
		return
	}
	response.Success(w, h.tracker.GetProfile(mode, models.ViewManual))
}
