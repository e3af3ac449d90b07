package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/browserfarm/browserfarm/internal/api"
	"github.com/browserfarm/browserfarm/internal/browser"
	"github.com/browserfarm/browserfarm/internal/events"
	"github.com/browserfarm/browserfarm/internal/proxycfg"
	"github.com/browserfarm/browserfarm/internal/ratelimit"
	"github.com/browserfarm/browserfarm/internal/script"
	"github.com/browserfarm/browserfarm/internal/session"
	"github.com/browserfarm/browserfarm/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Starting BrowserFarm...")

	dbPath := envOr("DATABASE_PATH", "./data/browserfarm.db")
	port := envOr("PORT", "8080")

	// Open the database
	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()
	log.Printf("Database ready at %s", dbPath)

	// Initialize the browser engine (installs playwright drivers on first run)
	engine := browser.NewEngine()
	log.Println("Installing browser drivers if needed...")
	if err := engine.Initialize(); err != nil {
		log.Fatalf("Failed to initialize browser engine: %v", err)
	}
	defer engine.Close()
	log.Println("Browser engine initialized")

	// Event hub for websocket subscribers
	hub := events.NewHub()

	// Session manager
	mgr := session.NewManager(engine, st, hub)
	if d := os.Getenv("TELEMETRY_DEBOUNCE_MS"); d != "" {
		ms, err := strconv.Atoi(d)
		if err != nil || ms <= 0 {
			log.Fatalf("Invalid TELEMETRY_DEBOUNCE_MS: %q", d)
		}
		mgr.SetDebounce(time.Duration(ms) * time.Millisecond)
	}
	log.Println("Session manager initialized")

	// Script runner
	runner := script.NewRunner(mgr, st)

	// Proxy tester
	tester := proxycfg.NewTester()

	// Rate limiter (requests/minute per client)
	rpm := envIntOr("RATE_LIMIT_RPM", 120)
	rateLimiter := ratelimit.NewLimiter(rpm, 20)
	log.Printf("Rate limiter initialized (%d req/min per client)", rpm)

	// HTTP handlers
	handler := api.NewHandler(mgr, st, runner, tester)
	router := handler.SetupRoutes(hub, rateLimiter, rpm)
	log.Println("HTTP routes configured")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gracefully...")

	// Close every running browser before the process exits
	if err := mgr.Cleanup(); err != nil {
		log.Printf("Cleanup error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped cleanly")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("Invalid %s: %q", key, v)
	}
	return n
}
