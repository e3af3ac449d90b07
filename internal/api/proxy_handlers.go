package api

import (
	"encoding/json"
	"net/http"

	"github.com/browserfarm/browserfarm/internal/proxycfg"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// CreateProxyRequest accepts either structured fields or a raw proxy string
type CreateProxyRequest struct {
	ProxyString string `json:"proxyString,omitempty"`
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	Protocol    string `json:"protocol,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CreateProxy handles POST /api/proxies
func (h *Handler) CreateProxy(w http.ResponseWriter, r *http.Request) {
	var req CreateProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var proxy models.Proxy
	if req.ProxyString != "" {
		parsed, err := proxycfg.Parse(req.ProxyString)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		proxy = parsed
	} else {
		if req.Host == "" || req.Port == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "host and port are required"})
			return
		}
		proxy = models.Proxy{
			Host:     req.Host,
			Port:     req.Port,
			Username: req.Username,
			Password: req.Password,
			Protocol: req.Protocol,
		}
	}
	proxy.Notes = req.Notes

	created, err := h.store.CreateProxy(proxy)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListProxies handles GET /api/proxies
func (h *Handler) ListProxies(w http.ResponseWriter, r *http.Request) {
	proxies, err := h.store.ListProxies()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proxies)
}

// ParseProxyList handles POST /api/proxies/parse-list: bulk-imports a
// newline-separated list, returning created entries and per-line errors.
func (h *Handler) ParseProxyList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		List string `json:"list"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	parsed, parseErrors := proxycfg.ParseList(req.List)

	created := make([]models.Proxy, 0, len(parsed))
	for _, p := range parsed {
		saved, err := h.store.CreateProxy(p)
		if err != nil {
			writeError(w, err)
			return
		}
		created = append(created, *saved)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": created,
		"errors":  parseErrors,
	})
}

// TestProxy handles POST /api/proxies/{id}/test
func (h *Handler) TestProxy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	proxy, err := h.store.GetProxy(id)
	if err != nil {
		writeError(w, err)
		return
	}

	result := h.tester.Test(*proxy)
	if err := h.store.RecordProxyTest(id, result); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AssignProxy handles POST /api/proxies/{id}/assign: links the proxy to a
// profile, or releases it when profileId is omitted.
func (h *Handler) AssignProxy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req struct {
		ProfileID *int64 `json:"profileId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.store.AssignProxy(id, req.ProfileID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proxyId":   id,
		"profileId": req.ProfileID,
	})
}

// DeleteProxy handles DELETE /api/proxies/{id}
func (h *Handler) DeleteProxy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.DeleteProxy(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
