package handlers

import (
	"net/http"

	"github.com/speaax/delve-companion/internal/api/response"
	"github.com/speaax/delve-companion/internal/version"
)

// ServiceName identifies the API in health and version responses.
const ServiceName = "delve-companion-api"

// SystemHandler handles system-related API requests.
type SystemHandler struct {
	clients func() int
}

// NewSystemHandler creates a new SystemHandler. clients reports connected
// WebSocket clients and may be nil.
func NewSystemHandler(clients func() int) *SystemHandler {
	return &SystemHandler{clients: clients}
}

// Health returns server health status.
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// GetVersion returns the application version.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	clients := 0
	if h.clients != nil {
		clients = h.clients()
	}
	response.Success(w, map[string]interface{}{
		"version":           version.String(),
		"service":           ServiceName,
		"websocket_clients": clients,
	})
}
