package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/speaax/delve-companion/internal/api/response"
	"github.com/speaax/delve-companion/internal/stats"
	"github.com/speaax/delve-companion/internal/storage"
	"github.com/speaax/delve-companion/internal/tracker"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryReader reads the event log. *storage.Service implements it.
type HistoryReader interface {
	History(ctx context.Context, mode, period string, limit int) (*storage.History, error)
}

// HistoryHandler serves the event log.
type HistoryHandler struct {
	history HistoryReader
}

// NewHistoryHandler creates a new HistoryHandler. history may be nil when the
// companion runs without a database.
func NewHistoryHandler(history HistoryReader) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// GetHistory handles GET /history?mode=&period=&limit=.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		response.ServiceUnavailable(w, errors.New("history is not available"))
		return
	}

	q := r.URL.Query()
	mode := tracker.NormalizeMode(q.Get("mode"))
	period := q.Get("period")
	if period == "" {
		period = stats.PeriodAll
	}

	limit := defaultHistoryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(w, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	hist, err := h.history.History(r.Context(), mode, period, limit)
	if err != nil {
		if errors.Is(err, stats.ErrUnknownPeriod) {
			response.BadRequest(w, err)
			return
		}
		response.InternalError(w, fmt.Errorf("failed to load history: %w", err))
		return
	}
	response.Success(w, hist)
}
