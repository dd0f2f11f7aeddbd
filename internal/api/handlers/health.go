package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
)

// Pinger is satisfied by the Redis index.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	outputDir string
	redis     Pinger
}

func NewHealthHandler(outputDir string, redis Pinger) *HealthHandler {
	return &HealthHandler{outputDir: outputDir, redis: redis}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if info, err := os.Stat(h.outputDir); err != nil {
		checks["output_dir"] = "unhealthy: " + err.Error()
	} else if !info.IsDir() {
		checks["output_dir"] = "unhealthy: not a directory"
	} else {
		checks["output_dir"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
