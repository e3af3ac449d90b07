package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/browserfarm/browserfarm/internal/proxycfg"
	"github.com/browserfarm/browserfarm/internal/script"
	"github.com/browserfarm/browserfarm/internal/session"
	"github.com/browserfarm/browserfarm/internal/store"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	mgr    *session.Manager
	store  *store.Store
	runner *script.Runner
	tester *proxycfg.Tester
}

// NewHandler creates the HTTP handler set.
func NewHandler(mgr *session.Manager, st *store.Store, runner *script.Runner, tester *proxycfg.Tester) *Handler {
	return &Handler{
		mgr:    mgr,
		store:  st,
		runner: runner,
		tester: tester,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, errors.New("invalid id in path")
	}
	return id, nil
}

// ExecuteRequest is the wire form of an action invocation
type ExecuteRequest struct {
	Action string        `json:"action"`
	Args   []interface{} `json:"args,omitempty"`
}

// StartBrowser handles POST /api/browser/start/{profileId}
func (h *Handler) StartBrowser(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "profileId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var opts models.StartOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sess, err := h.mgr.Start(profileID, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

// StopBrowser handles POST /api/browser/stop/{profileId}
func (h *Handler) StopBrowser(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "profileId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.mgr.Stop(profileID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "browser stopped"})
}

// StartBulk handles POST /api/browser/start-bulk. Always one outcome per
// requested profile; one member failing never fails the batch.
func (h *Handler) StartBulk(w http.ResponseWriter, r *http.Request) {
	var req models.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	outcomes := make([]models.Outcome, 0, len(req.ProfileIDs))
	for _, profileID := range req.ProfileIDs {
		sess, err := h.mgr.Start(profileID, models.StartOptions{Headless: req.Headless})
		if err != nil {
			outcomes = append(outcomes, models.Outcome{ProfileID: profileID, Success: false, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, models.Outcome{ProfileID: profileID, Success: true, Result: sess})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": outcomes})
}

// StopBulk handles POST /api/browser/stop-bulk
func (h *Handler) StopBulk(w http.ResponseWriter, r *http.Request) {
	var req models.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	outcomes := make([]models.Outcome, 0, len(req.ProfileIDs))
	for _, profileID := range req.ProfileIDs {
		if err := h.mgr.Stop(profileID); err != nil {
			outcomes = append(outcomes, models.Outcome{ProfileID: profileID, Success: false, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, models.Outcome{ProfileID: profileID, Success: true})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": outcomes})
}

// SetMaster handles POST /api/browser/set-master/{profileId}
func (h *Handler) SetMaster(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "profileId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.mgr.SetMaster(profileID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "master profile set"})
}

// AddSlave handles POST /api/browser/add-slave/{profileId}
func (h *Handler) AddSlave(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "profileId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.mgr.AddSlave(profileID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "slave profile added"})
}

// RemoveSlave handles POST /api/browser/remove-slave/{profileId}
func (h *Handler) RemoveSlave(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "profileId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.mgr.RemoveSlave(profileID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "slave profile removed"})
}

// ExecuteMaster handles POST /api/browser/execute-master
func (h *Handler) ExecuteMaster(w http.ResponseWriter, r *http.Request) {
	action, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	result, err := h.mgr.ExecuteOnMaster(action)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

// ExecuteSlaves handles POST /api/browser/execute-slaves
func (h *Handler) ExecuteSlaves(w http.ResponseWriter, r *http.Request) {
	action, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	outcomes := h.mgr.ExecuteOnSlaves(action)
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": outcomes})
}

// ExecuteProfile handles POST /api/browser/execute/{profileId}
func (h *Handler) ExecuteProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "profileId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	action, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	result, err := h.mgr.ExecuteOnProfile(profileID, action)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

func (h *Handler) decodeAction(w http.ResponseWriter, r *http.Request) (session.Action, bool) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return session.Action{}, false
	}

	action, err := session.ParseAction(req.Action, req.Args)
	if err != nil {
		writeError(w, err)
		return session.Action{}, false
	}
	return action, true
}

// BrowserStatus handles GET /api/browser/status/{profileId}
func (h *Handler) BrowserStatus(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "profileId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, h.mgr.StatusOf(profileID))
}

// BrowserStatusAll handles GET /api/browser/status
func (h *Handler) BrowserStatusAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mgr.StatusOfAll())
}

// ListSessions handles GET /api/browser/sessions: persisted history joined
// with real-time registry status.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		writeError(w, err)
		return
	}

	statuses := h.mgr.StatusOfAll()

	type sessionView struct {
		models.Session
		RealTimeStatus models.SessionStatus `json:"realTimeStatus"`
	}

	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		status, ok := statuses[sess.ProfileID]
		if !ok {
			status = models.SessionStatus{Status: models.StateStopped}
		}
		views = append(views, sessionView{Session: sess, RealTimeStatus: status})
	}

	writeJSON(w, http.StatusOK, views)
}

// CleanupBrowsers handles POST /api/browser/cleanup (emergency stop)
func (h *Handler) CleanupBrowsers(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Cleanup(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "all browsers cleaned up"})
}
