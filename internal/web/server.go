package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercuri-finance/mercuri-protocol/internal/logger"
	"github.com/mercuri-finance/mercuri-protocol/internal/state"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// StatusProvider exposes the vault's read-only status snapshot.
type StatusProvider interface {
	Status() types.VaultStatus
}

// EventSource serves recent journal events.
type EventSource interface {
	RecentEvents(limit int) ([]state.StoredEvent, error)
}

// WebServer handles HTTP requests for vault observability. All routes are
// read-only: vault operations go through the Go API, never through HTTP.
type WebServer struct {
	router *mux.Router
	port   string
	vault  StatusProvider
	events EventSource
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, vault StatusProvider, events EventSource) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		vault:  vault,
		events: events,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/vault/status", ws.handleVaultStatus).Methods("GET")
	api.HandleFunc("/vault/events", ws.handleVaultEvents).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// Handler returns the configured router, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := ws.vault.Status()
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().UTC(),
		"position_id": status.PositionID,
		"active":      status.Active,
	})
}

func (ws *WebServer) handleVaultStatus(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.vault.Status())
}

func (ws *WebServer) handleVaultEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			ws.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = parsed
	}

	events, err := ws.events.RecentEvents(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to load vault events")
		ws.writeError(w, http.StatusInternalServerError, "failed to load vault events")
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, code int, message string) {
	ws.writeJSON(w, code, map[string]string{"error": message})
}

// corsMiddleware adds CORS headers for the dashboard frontend.
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request at debug level.
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
