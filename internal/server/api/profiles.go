package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kevinyhe/handy/internal/gesture"
	"github.com/kevinyhe/handy/internal/store"
)

// ProfilesHandler handles HTTP requests for profile resources.
type ProfilesHandler struct {
	store  *store.Store
	config *gesture.Config
}

// NewProfilesHandler creates a ProfilesHandler. config may be nil, in which
// case profiles cannot be activated.
func NewProfilesHandler(s *store.Store, config *gesture.Config) *ProfilesHandler {
	return &ProfilesHandler{store: s, config: config}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *ProfilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/profiles, /api/profiles/{id},
	// /api/profiles/{id}/activate
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.activate(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type profileRequest struct {
	Name     string           `json:"name"`
	Settings gesture.Settings `json:"settings"`
}

type profileResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Settings  gesture.Settings `json:"settings"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

// toResponse converts a store.Profile to a profileResponse.
func toResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Settings:  p.Settings,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// list handles GET /api/profiles and returns all profiles.
func (h *ProfilesHandler) list(w http.ResponseWriter, _ *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}

	resp := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		resp.Profiles = append(resp.Profiles, toResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// create handles POST /api/profiles.
func (h *ProfilesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := req.Settings.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &store.Profile{Name: req.Name, Settings: req.Settings}
	if err := h.store.Profiles().Create(p); err != nil {
		writeError(w, http.StatusConflict, "failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(p))
}

// get handles GET /api/profiles/{id}.
func (h *ProfilesHandler) get(w http.ResponseWriter, _ *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p))
}

// update handles PUT /api/profiles/{id}.
func (h *ProfilesHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := req.Settings.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &store.Profile{ID: id, Name: req.Name, Settings: req.Settings}
	if err := h.store.Profiles().Update(p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p))
}

// delete handles DELETE /api/profiles/{id}.
func (h *ProfilesHandler) delete(w http.ResponseWriter, _ *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// activate handles POST /api/profiles/{id}/activate, applying the profile's
// settings to the live config and persisting them as current.
func (h *ProfilesHandler) activate(w http.ResponseWriter, _ *http.Request, id string) {
	if h.config == nil {
		writeError(w, http.StatusServiceUnavailable, "no live config attached")
		return
	}

	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}

	h.config.Update(p.Settings)
	if err := h.store.Settings().Save(p.Settings); err != nil {
		log.Printf("api: persist activated profile: %v", err)
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}
