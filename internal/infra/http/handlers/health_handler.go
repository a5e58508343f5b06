package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Version      string
	SinkURL      string
	Dependencies map[string]Pinger
	StartTime    time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(version, sinkURL string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		Version:      version,
		SinkURL:      sinkURL,
		Dependencies: deps,
		StartTime:    time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	status := "healthy"

	for name, dep := range h.Dependencies {
		if dep == nil {
			deps[name] = "not configured"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			// Error text stays server-side; it may contain hosts.
			deps[name] = "unhealthy"
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	// A missing sink makes every submission fail.
	if h.SinkURL != "" {
		deps["sink"] = "configured"
	} else {
		deps["sink"] = "not configured"
		status = "degraded"
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
