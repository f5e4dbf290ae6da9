package api

import (
	"context"
	"net/http"
	"time"

	"taxiapp/pkg/logger"
)

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Readiness reports whether the storage backend answers a ping.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthy := true
	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			h.log.Warning("readiness check failed", logger.Error(err))
			healthy = false
		}
	}

	checks := map[string]bool{"storage": healthy}
	if healthy {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": checks})
}
