package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/settings"
)

// SettingsHandler serves GET and PUT /api/settings. Persistence is attached
// to the live settings with settings.Persist.
type SettingsHandler struct {
	live *settings.Live
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(live *settings.Live) *SettingsHandler {
	return &SettingsHandler{live: live}
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.live.Load())
	case http.MethodPut, http.MethodPatch:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update applies a partial settings document.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.live.Update(patch.Apply); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.live.Load())
}
