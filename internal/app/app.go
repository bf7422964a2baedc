package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/styleai/server/internal/module/auth"
	"github.com/styleai/server/internal/module/quota"
	"github.com/styleai/server/internal/module/studio"
	sharedcache "github.com/styleai/server/internal/shared/cache"
	"github.com/styleai/server/internal/shared/config"
	"github.com/styleai/server/internal/shared/database"
	"github.com/styleai/server/internal/shared/logger"
	"github.com/styleai/server/internal/utils/metrics"
	"github.com/styleai/server/internal/utils/middleware"
)

// App wires configuration, storage, the quota gate, and the studio module
// into a runnable HTTP application.
type App struct {
	config *config.Config
	logger *logger.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine

	quotaStore quota.Store
	gate       *quota.Gate

	studioService *studio.Service
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	app := &App{
		config: cfg,
		logger: log,
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := studio.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	app.db = db

	// The quota store is backed by Redis when configured. The in-memory
	// fallback keeps single-node deployments and local development working,
	// at the cost of counters resetting on restart.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = redisClient
		app.quotaStore = quota.NewRedisStore(redisClient)
	} else {
		log.Warn("redis not configured, using in-memory quota store")
		app.quotaStore = quota.NewMemoryStore()
	}

	policy, err := quota.NewPolicy(cfg.Quota.Timezone)
	if err != nil {
		return nil, fmt.Errorf("init day boundary policy: %w", err)
	}

	app.gate = quota.NewGate(&quota.GateConfig{
		Store:  app.quotaStore,
		Policy: policy,
		Limits: quota.Limits{
			Default: cfg.Quota.DailyLimit,
			Tiers:   cfg.Quota.Tiers,
		},
		Logger: log,
	})

	appMetrics := metrics.New("styleai")

	provider := studio.NewGeminiProvider(&cfg.Provider)
	app.studioService = studio.NewService(&studio.ServiceConfig{
		Provider:         provider,
		Gate:             app.gate,
		Repo:             studio.NewRepository(db),
		Metrics:          appMetrics,
		Logger:           log,
		FailureThreshold: cfg.Provider.FailureThreshold,
		CircuitTimeout:   cfg.Provider.CircuitTimeout,
	})

	app.router = app.setupRouter(appMetrics)

	return app, nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter(m *metrics.Metrics) *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	if a.redis != nil && a.config.RateLimit.Limit > 0 {
		limiter := sharedcache.NewRateLimiter(a.redis)
		r.Use(middleware.RateLimit(limiter, middleware.RateLimitConfig{
			Limit:  a.config.RateLimit.Limit,
			Window: a.config.RateLimit.Window,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret: a.config.Auth.JWTSecret,
		Issuer: a.config.Auth.Issuer,
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RequireAuth(jwtManager))

	quota.NewHandler(a.gate).RegisterRoutes(api)
	studio.NewHandler(a.studioService).RegisterRoutes(api.Group("/studio"))

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases application resources.
func (a *App) Stop() {
	// The Redis-backed store owns the client connection, so closing the
	// store covers both.
	if a.quotaStore != nil {
		if err := a.quotaStore.Close(); err != nil {
			a.logger.Error("close quota store", logger.Err(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Error("close database", logger.Err(err))
		}
	}
}
