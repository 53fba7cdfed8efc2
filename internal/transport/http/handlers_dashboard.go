package httptransport

import (
	"net/http"
)

func (h *Handler) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sync.Status(r.Context()))
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if h.db.Healthy(r.Context()) {
			checks["database"] = "ok"
		} else {
			checks["database"] = "down"
			healthy = false
		}
	}
	if h.redis != nil {
		if h.redis.Healthy(r.Context()) {
			checks["redis"] = "ok"
		} else {
			checks["redis"] = "down"
			healthy = false
		}
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status": state,
		"checks": checks,
	})
}
