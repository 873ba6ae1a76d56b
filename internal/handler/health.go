package handler

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 3 * time.Second

// HealthChecker is any dependency that can be pinged.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// dependency is a named readiness check. A nil checker is reported as
// "not configured" and never fails readiness.
type dependency struct {
	name    string
	checker HealthChecker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler creates a HealthHandler checking PostgreSQL and Redis.
// Either may be nil when the dependency is not in use.
func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		deps: []dependency{
			{name: "postgres", checker: db},
			{name: "redis", checker: cache},
		},
	}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz reports that the process is serving requests.
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every configured dependency and answers 503 if any fails.
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := HealthResponse{
		Status: "ok",
		Checks: make(map[string]string, len(h.deps)),
	}
	status := http.StatusOK

	for _, dep := range h.deps {
		if dep.checker == nil {
			resp.Checks[dep.name] = "not configured"
			continue
		}
		if err := dep.checker.Ping(ctx); err != nil {
			resp.Checks[dep.name] = "error: " + err.Error()
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[dep.name] = "ok"
	}

	writeJSON(w, status, resp)
}
