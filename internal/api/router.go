package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmiq/farmiq/internal/app"
	"github.com/farmiq/farmiq/internal/handlers"
	"github.com/farmiq/farmiq/internal/middleware"
	"github.com/farmiq/farmiq/internal/monitoring"
	"github.com/farmiq/farmiq/internal/schemes"
)

// Dependencies carries the services the HTTP surface is built from.
type Dependencies struct {
	Config  *app.Config
	Market  handlers.MarketPricer
	Schemes *schemes.Service
	Health  *monitoring.HealthManager
	// RateStore backs the /api limiter. Nil falls back to a process-local store.
	RateStore middleware.RateStore
	Clock     clockwork.Clock
}

// NewRouter builds the Gin engine, wires middleware and registers the FarmIQ routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Market == nil {
		return nil, errors.New("market service must be provided")
	}
	if deps.Schemes == nil {
		return nil, errors.New("scheme service must be provided")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	if cfg.Monitoring.Prometheus.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.SecurityHeaders(cfg.Server.Production()))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins))

	registerHealthRoutes(r, cfg, handlers.NewHealthHandler(cfg.Server.Environment, deps.Health, deps.Clock))

	api := r.Group("/api")
	if limit := cfg.Server.RateLimit; limit.Enabled {
		store := deps.RateStore
		if store == nil {
			store = middleware.NewMemoryRateStore(deps.Clock)
		}
		api.Use(middleware.RateLimit(store, limit.Requests, limit.Window))
	}

	registerMarketRoutes(api, handlers.NewMarketPricesHandler(deps.Market))
	registerSchemeRoutes(api, handlers.NewSchemesHandler(deps.Schemes))

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
