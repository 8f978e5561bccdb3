package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is implemented by dependencies that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	service string
	version string
	checks  map[string]Pinger
}

func NewHealthHandler(service, version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{service: service, version: version, checks: checks}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"servico": h.service,
		"versao":  h.version,
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	httpStatus := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			results[name] = "down"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"ok":        httpStatus == http.StatusOK,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	})
}
