package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	mendErrors "mend/internal/errors"
	"mend/internal/version"
)

// setupServer creates and configures the HTTP server
func (d *Daemon) setupServer() *http.Server {
	mux := http.NewServeMux()

	// Health endpoint (no auth required)
	mux.HandleFunc("/health", d.handleHealth)

	// API endpoints (auth required)
	mux.Handle("/api/v1/", d.withAuth(d.apiRouter()))

	addr := fmt.Sprintf("%s:%d", d.config.Daemon.Bind, d.config.Daemon.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      d.withLogging(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// statusRecorder captures the status code a handler writes
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// withLogging wraps a handler with request logging
func (d *Daemon) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		d.logger.Debug("Request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

// apiRouter returns the router for API endpoints
func (d *Daemon) apiRouter() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", d.handleStatus)

	// Graph operations
	mux.HandleFunc("/api/v1/graph/edges", d.handleTrackDependency)
	mux.HandleFunc("/api/v1/graph/impact", d.handleFindImpact)
	mux.HandleFunc("/api/v1/graph/scan", d.handleScanCodebase)

	// Intent capture
	mux.HandleFunc("/api/v1/captures", d.handleCaptures)
	mux.HandleFunc("/api/v1/captures/", d.handleCaptureRoute)

	// Healing
	mux.HandleFunc("/api/v1/healing", d.handleInitiateHealing)
	mux.HandleFunc("/api/v1/healing/actions", d.handleHealingActions)

	// Debug sessions
	mux.HandleFunc("/api/v1/debug/sessions", d.handleSessions)
	mux.HandleFunc("/api/v1/debug/sessions/", d.handleSessionRoute)

	return mux
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	RoomID  string `json:"roomId"`
}

// handleHealth handles GET /health (no auth required)
func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	d.mu.RLock()
	uptime := time.Since(d.startedAt)
	d.mu.RUnlock()

	d.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Uptime:  formatDuration(uptime),
		RoomID:  d.config.Room.ID,
	})
}

// handleStatus handles GET /api/v1/status
func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d.writeJSON(w, http.StatusOK, d.State())
}

// APIError represents an API error payload
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// errorResponse is the standard error envelope
type errorResponse struct {
	Error APIError `json:"error"`
}

// writeJSON writes a JSON response
func (d *Daemon) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		d.logger.Warn("Failed to encode JSON response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// writeError writes an error response
func (d *Daemon) writeError(w http.ResponseWriter, status int, code, message string) {
	d.writeJSON(w, status, errorResponse{Error: APIError{Code: code, Message: message}})
}

// writeServiceError maps a service error to its HTTP status
func (d *Daemon) writeServiceError(w http.ResponseWriter, err error) {
	code := mendErrors.CodeOf(err)
	status := http.StatusInternalServerError

	switch {
	case mendErrors.IsNotFound(err):
		status = http.StatusNotFound
	case code == mendErrors.QueueFull:
		status = http.StatusTooManyRequests
	case code == mendErrors.SessionResolved,
		code == mendErrors.RoomInvalid,
		code == mendErrors.RelationshipInvalid:
		status = http.StatusBadRequest
	}

	d.writeError(w, status, string(code), err.Error())
}

// decodeBody decodes a JSON request body into dst
func (d *Daemon) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		d.writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON request body")
		return false
	}
	return true
}
