package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/farmiq/farmiq/internal/monitoring"
)

// HealthHandler exposes the service status and dependency probes.
type HealthHandler struct {
	environment string
	manager     *monitoring.HealthManager
	clock       clockwork.Clock
}

// NewHealthHandler constructs a HealthHandler. A nil manager reports every probe endpoint as up.
func NewHealthHandler(environment string, manager *monitoring.HealthManager, clock clockwork.Clock) *HealthHandler {
	if environment == "" {
		environment = "development"
	}
	if manager == nil {
		manager = monitoring.NewHealthManager()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthHandler{environment: environment, manager: manager, clock: clock}
}

// Status handles GET /health and GET /api/health.
func (h *HealthHandler) Status(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = "no-origin"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   h.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"environment": h.environment,
		"cors_origin": origin,
	})
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(c *gin.Context) {
	writeReport(c, h.manager.EvaluateLiveness(requestContext(c)))
}

// Readiness handles GET /health/ready. A degraded dependency is reported but keeps the
// instance in rotation.
func (h *HealthHandler) Readiness(c *gin.Context) {
	writeReport(c, h.manager.EvaluateReadiness(requestContext(c)))
}

func writeReport(c *gin.Context, report monitoring.HealthReport) {
	status := http.StatusOK
	if report.Status == monitoring.StatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
