package api

import (
	"github.com/gin-gonic/gin"

	"github.com/farmiq/farmiq/internal/app"
	"github.com/farmiq/farmiq/internal/handlers"
)

// registerHealthRoutes mounts the status endpoint at /health and /api/health. The probe
// endpoints are only served when health checks are enabled.
func registerHealthRoutes(r *gin.Engine, cfg *app.Config, handler *handlers.HealthHandler) {
	r.GET("/health", handler.Status)
	r.GET("/api/health", handler.Status)

	if !cfg.Monitoring.Health.Enabled {
		return
	}
	r.GET("/health/live", handler.Liveness)
	r.GET("/health/ready", handler.Readiness)
}
