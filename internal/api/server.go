package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/browserfarm/browserfarm/internal/events"
	"github.com/browserfarm/browserfarm/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(hub *events.Hub, rateLimiter *ratelimit.Limiter, requestsPerMinute int) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Browser lifecycle and coordination endpoints (rate limited)
	browser := api.PathPrefix("/browser").Subrouter()
	browser.Use(RateLimitMiddleware(rateLimiter, requestsPerMinute))

	browser.HandleFunc("/sessions", h.ListSessions).Methods("GET")
	browser.HandleFunc("/start/{profileId}", h.StartBrowser).Methods("POST")
	browser.HandleFunc("/stop/{profileId}", h.StopBrowser).Methods("POST")
	browser.HandleFunc("/start-bulk", h.StartBulk).Methods("POST")
	browser.HandleFunc("/stop-bulk", h.StopBulk).Methods("POST")
	browser.HandleFunc("/set-master/{profileId}", h.SetMaster).Methods("POST")
	browser.HandleFunc("/add-slave/{profileId}", h.AddSlave).Methods("POST")
	browser.HandleFunc("/remove-slave/{profileId}", h.RemoveSlave).Methods("POST")
	browser.HandleFunc("/execute-master", h.ExecuteMaster).Methods("POST")
	browser.HandleFunc("/execute-slaves", h.ExecuteSlaves).Methods("POST")
	browser.HandleFunc("/execute/{profileId}", h.ExecuteProfile).Methods("POST")
	browser.HandleFunc("/status/{profileId}", h.BrowserStatus).Methods("GET")
	browser.HandleFunc("/status", h.BrowserStatusAll).Methods("GET")
	browser.HandleFunc("/cleanup", h.CleanupBrowsers).Methods("POST")

	// Profile endpoints
	api.HandleFunc("/profiles", h.CreateProfile).Methods("POST")
	api.HandleFunc("/profiles", h.ListProfiles).Methods("GET")
	api.HandleFunc("/profiles/generate-fingerprint", h.GenerateFingerprint).Methods("POST")
	api.HandleFunc("/profiles/{id}", h.GetProfile).Methods("GET")
	api.HandleFunc("/profiles/{id}", h.UpdateProfile).Methods("PUT")
	api.HandleFunc("/profiles/{id}", h.DeleteProfile).Methods("DELETE")
	api.HandleFunc("/profiles/{id}/reroll-fingerprint", h.RerollFingerprint).Methods("POST")

	// Proxy endpoints
	api.HandleFunc("/proxies", h.CreateProxy).Methods("POST")
	api.HandleFunc("/proxies", h.ListProxies).Methods("GET")
	api.HandleFunc("/proxies/parse-list", h.ParseProxyList).Methods("POST")
	api.HandleFunc("/proxies/{id}/test", h.TestProxy).Methods("POST")
	api.HandleFunc("/proxies/{id}/assign", h.AssignProxy).Methods("POST")
	api.HandleFunc("/proxies/{id}", h.DeleteProxy).Methods("DELETE")

	// Script endpoints
	api.HandleFunc("/scripts", h.CreateScript).Methods("POST")
	api.HandleFunc("/scripts", h.ListScripts).Methods("GET")
	api.HandleFunc("/scripts/{id}", h.GetScript).Methods("GET")
	api.HandleFunc("/scripts/{id}", h.UpdateScript).Methods("PUT")
	api.HandleFunc("/scripts/{id}", h.DeleteScript).Methods("DELETE")
	api.HandleFunc("/scripts/{id}/run", h.RunScript).Methods("POST")

	// Event stream (not rate limited - long-lived connections)
	api.HandleFunc("/events", hub.HandleConnection).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// CORS middleware
	r.Use(corsMiddleware)

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
