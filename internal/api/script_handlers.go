package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/browserfarm/browserfarm/pkg/models"
)

// CreateScript handles POST /api/scripts
func (h *Handler) CreateScript(w http.ResponseWriter, r *http.Request) {
	var sc models.Script
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if sc.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if len(sc.Actions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one action is required"})
		return
	}

	created, err := h.store.CreateScript(sc)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetScript handles GET /api/scripts/{id}
func (h *Handler) GetScript(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sc, err := h.store.GetScript(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sc)
}

// ListScripts handles GET /api/scripts
func (h *Handler) ListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.store.ListScripts()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scripts)
}

// UpdateScript handles PUT /api/scripts/{id}
func (h *Handler) UpdateScript(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	existing, err := h.store.GetScript(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Actions     []models.ScriptAction `json:"actions"`
		Schedule    *string               `json:"schedule"`
		IsActive    *bool                 `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Actions != nil {
		existing.Actions = req.Actions
	}
	if req.Schedule != nil {
		existing.Schedule = *req.Schedule
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := h.store.UpdateScript(*existing); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.store.GetScript(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteScript handles DELETE /api/scripts/{id}
func (h *Handler) DeleteScript(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.DeleteScript(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RunScript handles POST /api/scripts/{id}/run. An optional body names the
// target profiles; without one the script runs on every running browser.
func (h *Handler) RunScript(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		ProfileIDs []int64 `json:"profileIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.runner.Run(id, req.ProfileIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
