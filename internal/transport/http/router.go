// Package httptransport assembles the public HTTP surface: module handlers,
// health probes and the metrics endpoint.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"driveflow/internal/transport/http/shared"
)

// Registrar is anything that mounts routes on the router; module handlers
// implement it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the health of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router bundles the top-level wiring inputs.
type Router struct {
	handlers []Registrar
	checks   map[string]HealthChecker
}

// NewRouter builds the top-level router. Health checks run on /healthz; nil
// checkers are skipped so in-memory deployments stay healthy.
func NewRouter(handlers []Registrar, checks map[string]HealthChecker) http.Handler {
	rt := &Router{handlers: handlers, checks: checks}

	r := chi.NewRouter()
	r.Get("/healthz", rt.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	for _, h := range rt.handlers {
		h.Register(r)
	}
	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if check == nil {
			continue
		}
		if err := check.Health(ctx); err != nil {
			deps[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	shared.WriteJSON(w, status, body)
}
