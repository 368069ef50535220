package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/daap14/blueprints/internal/api/middleware"
	"github.com/daap14/blueprints/internal/api/response"
)

// StorePinger checks that the blueprint store backend is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	pinger  StorePinger
	backend string
	filter  string
	version string
}

// NewHealthHandler creates a new HealthHandler. A nil pinger is treated as an
// always-available store (the in-memory backend).
func NewHealthHandler(pinger StorePinger, backend, filter, version string) *HealthHandler {
	return &HealthHandler{
		pinger:  pinger,
		backend: backend,
		filter:  filter,
		version: version,
	}
}

type storeStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
}

type healthData struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Filter  string      `json:"filter"`
	Store   storeStatus `json:"store"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	connected := true
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			slog.Warn("store ping failed", "error", err, "backend", h.backend)
			connected = false
		}
	}

	status := "healthy"
	if !connected {
		status = "degraded"
	}

	data := healthData{
		Status:  status,
		Version: h.version,
		Filter:  h.filter,
		Store: storeStatus{
			Backend:   h.backend,
			Connected: connected,
		},
	}

	response.Success(w, http.StatusOK, data, requestID)
}
