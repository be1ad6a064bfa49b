package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Pinger is a backend the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns the health check handler. Any failing backend turns
// the response into a 503.
func HealthHandler(version string, backends map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "healthy", Version: version}
		status := http.StatusOK

		if len(backends) > 0 {
			resp.Checks = make(map[string]string, len(backends))
			for name, b := range backends {
				if err := b.Ping(ctx); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "unhealthy"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}

		respondJSON(w, status, resp)
	}
}
