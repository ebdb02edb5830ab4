package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"pcrcli/pkg/contracts/domain"
)

// HealthHandler handles health and version requests.
type HealthHandler struct {
	service AnalysisService
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service AnalysisService, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service: service,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var formats []domain.VendorFormat
	if h.service != nil {
		formats = h.service.Tags()
	}
	render.JSON(w, r, map[string]interface{}{
		"status":  "healthy",
		"uptime":  time.Since(h.started).String(),
		"formats": formats,
	})
}

// LivenessCheck handles GET /api/health/live.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "alive"})
}
