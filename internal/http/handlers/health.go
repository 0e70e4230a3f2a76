package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs the configured checks and answers 503 when any fails.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	if len(a.HealthChecks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		resp.Checks = make(map[string]string, len(a.HealthChecks))
		for name, check := range a.HealthChecks {
			if err := check(ctx); err != nil {
				a.Logger.Warn().Err(err).Str("check", name).Msg("http: health check failed")
				resp.Checks[name] = "down"
				resp.Status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	a.json(w, code, resp)
}
