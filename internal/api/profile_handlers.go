package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/browserfarm/browserfarm/internal/fingerprint"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// CreateProfile handles POST /api/profiles. A missing fingerprint is
// generated from the catalog; a missing user-data dir is derived under the
// profile storage root.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	fp := fingerprint.Generate()
	if req.Fingerprint != nil {
		fp = *req.Fingerprint
		if err := fingerprint.Validate(fp); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	profile := models.Profile{
		Name:        req.Name,
		Fingerprint: fp,
		ProxyID:     req.ProxyID,
		UserDataDir: req.UserDataDir,
		Notes:       req.Notes,
	}

	created, err := h.store.CreateProfile(profile)
	if err != nil {
		writeError(w, err)
		return
	}

	if created.UserDataDir == "" {
		created.UserDataDir = filepath.Join(os.TempDir(), "browserfarm-profiles", fmt.Sprintf("profile-%d", created.ID))
		if err := h.store.UpdateProfile(*created); err != nil {
			writeError(w, err)
			return
		}
	}

	if req.ProxyID != nil {
		if err := h.store.AssignProxy(*req.ProxyID, &created.ID); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetProfile handles GET /api/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	profile, err := h.store.GetProfile(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// ListProfiles handles GET /api/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// UpdateProfile handles PUT /api/profiles/{id}
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	existing, err := h.store.GetProfile(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req models.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Fingerprint != nil {
		if err := fingerprint.Validate(*req.Fingerprint); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		existing.Fingerprint = *req.Fingerprint
	}
	if req.UserDataDir != "" {
		existing.UserDataDir = req.UserDataDir
	}
	if req.Notes != "" {
		existing.Notes = req.Notes
	}
	if req.ProxyID != nil {
		existing.ProxyID = req.ProxyID
		if err := h.store.AssignProxy(*req.ProxyID, &existing.ID); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.store.UpdateProfile(*existing); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// DeleteProfile handles DELETE /api/profiles/{id}. A profile with a live
// session cannot be deleted.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if status := h.mgr.StatusOf(id); status.Status == models.StateRunning || status.Status == models.StateStarting {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "profile has a running browser"})
		return
	}

	if err := h.store.DeleteProfile(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GenerateFingerprint handles POST /api/profiles/generate-fingerprint
func (h *Handler) GenerateFingerprint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fingerprint.Generate())
}

// RerollFingerprint handles POST /api/profiles/{id}/reroll-fingerprint:
// regenerates a profile's fingerprint, usually keeping platform/timezone.
func (h *Handler) RerollFingerprint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	profile, err := h.store.GetProfile(id)
	if err != nil {
		writeError(w, err)
		return
	}

	profile.Fingerprint = fingerprint.Reroll(profile.Fingerprint)
	if err := h.store.UpdateProfile(*profile); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
