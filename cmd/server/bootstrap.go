package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmiq/farmiq/internal/api"
	"github.com/farmiq/farmiq/internal/app"
	"github.com/farmiq/farmiq/internal/app/maintenance"
	"github.com/farmiq/farmiq/internal/cache"
	"github.com/farmiq/farmiq/internal/database"
	"github.com/farmiq/farmiq/internal/market"
	"github.com/farmiq/farmiq/internal/middleware"
	"github.com/farmiq/farmiq/internal/monitoring"
	"github.com/farmiq/farmiq/internal/monitoring/checks"
	"github.com/farmiq/farmiq/internal/schemes"
	"github.com/farmiq/farmiq/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Cache   cache.Store
	Redis   *cache.RedisStore
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, clock clockwork.Clock, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := stack.initialiseCache(ctx, cfg, log); err != nil {
		return nil, err
	}

	client := market.NewClient(market.ClientConfig{
		BaseURL:    cfg.Market.BaseURL,
		ResourceID: cfg.Market.ResourceID,
		APIKey:     cfg.Market.APIKey,
		Timeout:    cfg.Market.Timeout,
	}, market.WithClientLogger(logger.WithModule("market")), market.WithClientClock(clock))
	if cfg.Market.APIKey == "" {
		log.Warn("market.api_key is empty; upstream requests will be rejected")
	}

	marketSvc, err := market.NewService(stack.Cache, client,
		market.WithTTL(cfg.Market.CacheTTL),
		market.WithMaxLimit(cfg.Market.MaxLimit),
		market.WithClock(clock),
		market.WithLogger(logger.WithModule("market")),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise market service: %w", err)
	}

	schemeSvc, err := schemes.NewService(stack.DB, logger.WithModule("schemes"))
	if err != nil {
		return nil, fmt.Errorf("initialise scheme service: %w", err)
	}

	tracker := monitoring.NewJobTracker(clock)
	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Cache,
			maintenance.WithClock(clock),
			maintenance.WithRetention(cfg.Cache.Retention),
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithTracker(tracker),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	health := monitoring.NewHealthManager(
		monitoring.WithProbeTimeout(cfg.Monitoring.Health.ProbeTimeout),
		monitoring.WithHealthClock(clock),
	)
	health.RegisterReadiness(checks.Database(stack.DB))
	health.RegisterReadiness(checks.Cache(stack.Cache, cfg.Cache.NormalizedDriver()))
	health.RegisterReadiness(checks.Maintenance(tracker, 0))

	var rateStore middleware.RateStore
	if stack.Redis != nil {
		rateStore = middleware.NewCounterRateStore(stack.Redis)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:    cfg,
		Market:    marketSvc,
		Schemes:   schemeSvc,
		Health:    health,
		RateStore: rateStore,
		Clock:     clock,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// initialiseCache builds the market cache for cache.driver. An unreachable Redis falls back to
// the in-process LRU so the proxy keeps serving.
func (s *runtimeStack) initialiseCache(ctx context.Context, cfg *app.Config, log *zap.Logger) error {
	driver := cfg.Cache.NormalizedDriver()

	switch driver {
	case app.CacheDriverRedis:
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig(),
			cache.WithRetention(cfg.Cache.Retention),
			cache.WithKeyPrefix(cfg.Cache.Redis.KeyPrefix),
		)
		if err == nil {
			s.Redis = store
			s.Cache = store
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			return nil
		}
		log.Warn("redis unavailable; falling back to in-memory cache", zap.Error(err))
	case app.CacheDriverDatabase:
		s.Cache = cache.NewDatabaseStore(s.DB)
		log.Info("market cache backed by database")
		return nil
	case app.CacheDriverMemory:
	default:
		return fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}

	store, err := cache.NewMemoryStore(cfg.Cache.Memory.Capacity)
	if err != nil {
		return fmt.Errorf("initialise memory cache: %w", err)
	}
	s.Cache = store
	log.Info("market cache in memory", zap.Int("capacity", cfg.Cache.Memory.Capacity))
	return nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		<-ctx.Done()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.Connection()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", db.Dialector.Name()))

	return db, nil
}
