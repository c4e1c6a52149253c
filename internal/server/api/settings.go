package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kevinyhe/handy/internal/gesture"
	"github.com/kevinyhe/handy/internal/store"
)

// SettingsHandler reads and updates the live settings. Updates land in the
// shared config immediately and are persisted when a store is attached.
type SettingsHandler struct {
	config *gesture.Config
	store  *store.Store
}

// NewSettingsHandler creates a SettingsHandler. store may be nil, in which
// case updates are not persisted.
func NewSettingsHandler(config *gesture.Config, s *store.Store) *SettingsHandler {
	return &SettingsHandler{config: config, store: s}
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// get handles GET /api/settings.
func (h *SettingsHandler) get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.config.Snapshot())
}

// update handles PUT /api/settings. The request body is a full settings
// document; partial updates start from a GET.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var s gesture.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.config.Update(s)

	if h.store != nil {
		if err := h.store.Settings().Save(s); err != nil {
			// The live config is already updated; persistence failure
			// only loses the value across restarts.
			log.Printf("api: persist settings: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, s)
}
