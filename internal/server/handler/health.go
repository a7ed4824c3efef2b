// Package handler contains the HTTP handlers for the public API.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/predictarb/predictarb/internal/snapshot"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	store  *snapshot.Store
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided logger.
func NewHealthHandler(store *snapshot.Store, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HealthCheck reports liveness plus the version and age of the current
// snapshot, so load balancers can tell "up" from "up but stale".
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Current()

	resp := map[string]any{
		"status":           "ok",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"snapshot_version": snap.Version,
	}
	if !snap.ComputedAt.IsZero() {
		resp["snapshot_age_seconds"] = int(time.Since(snap.ComputedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}
