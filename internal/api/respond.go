package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/browserfarm/browserfarm/internal/session"
	"github.com/browserfarm/browserfarm/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

// statusForError maps the orchestrator's typed errors to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrProfileNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyRunning),
		errors.Is(err, session.ErrNotRunning),
		errors.Is(err, session.ErrNoMaster),
		errors.Is(err, session.ErrSessionLimit),
		errors.Is(err, session.ErrStartAborted):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidRole):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrUnknownAction), errors.Is(err, session.ErrBadActionArgs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
