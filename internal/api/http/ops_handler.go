package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetrent-backend/internal/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler serves liveness, readiness and Prometheus metrics.
type OpsHandler struct {
	db      Pinger
	timeout time.Duration
}

func NewOpsHandler(db Pinger) *OpsHandler {
	return &OpsHandler{db: db, timeout: 2 * time.Second}
}

// HandleHealth always answers 200 while the process is up
func (h *OpsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady answers 503 when the database cannot be reached
func (h *OpsHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.Warn("Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// RegisterOpsRoutes registers the ops endpoints
func RegisterOpsRoutes(router *mux.Router, db Pinger) {
	handler := NewOpsHandler(db)
	router.HandleFunc("/healthz", handler.HandleHealth).Methods("GET")
	router.HandleFunc("/readyz", handler.HandleReady).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
