// Package gateway assembles the HTTP surface around the routing core
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llm-router/router/internal/auth"
	"github.com/llm-router/router/internal/intent"
	"github.com/llm-router/router/internal/middleware"
	"github.com/llm-router/router/internal/orchestrator"
	"github.com/llm-router/router/internal/providers"
	"github.com/llm-router/router/internal/router"
	"github.com/llm-router/router/internal/storage"
	"github.com/llm-router/router/pkg/types"
	"github.com/llm-router/router/pkg/utils"
)

// Gateway wires the routing core to its collaborators and exposes it over
// HTTP. The handlers are glue; all routing behavior lives in the core
// packages.
type Gateway struct {
	config       *types.Config
	logger       *utils.Logger
	db           *storage.Database
	redis        *storage.RedisClient
	registry     *storage.ProviderRegistry
	breakers     *router.BreakerRegistry
	orchestrator *orchestrator.Orchestrator
	authService  *auth.Service
	server       *http.Server
}

// New builds the full dependency graph from configuration.
func New(config *types.Config) (*Gateway, error) {
	logger := utils.NewLogger(&config.Logging)

	db, err := storage.NewDatabase(&config.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	if err := db.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("database migration: %w", err)
	}

	redisClient, err := storage.NewRedisClient(&config.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("redis init: %w", err)
	}

	registry := storage.NewProviderRegistry(db, config.Auth.MasterKey, logger)
	cache := storage.NewResponseCache(redisClient, config.Cache.KeyPrefix)

	breakers := router.NewBreakerRegistry(router.BreakerSettings{
		FailureThreshold: config.Breaker.FailureThreshold,
		ResetTimeout:     config.Breaker.ResetTimeout,
		MonitoringPeriod: config.Breaker.MonitoringPeriod,
	})
	upstream := providers.NewUpstream(registry, logger)
	weights := router.NewWeightManager(registry)
	classifier := intent.NewClassifier()

	rt := router.NewRouter(classifier, weights, breakers, upstream, logger)
	orch := orchestrator.New(rt, upstream, cache, config.Cache.TTL, logger)

	gw := &Gateway{
		config:       config,
		logger:       logger,
		db:           db,
		redis:        redisClient,
		registry:     registry,
		breakers:     breakers,
		orchestrator: orch,
		authService:  auth.NewService(&config.Auth),
	}

	gw.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      gw.buildEngine(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	return gw, nil
}

func (g *Gateway) buildEngine() *gin.Engine {
	if g.config.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())

	engine.GET("/health", g.handleHealth)

	v1 := engine.Group("/v1")
	v1.Use(middleware.Auth(g.authService, g.logger))
	{
		v1.POST("/chat", g.handleChat)
		v1.GET("/breakers", g.handleBreakers)
		v1.POST("/breakers/:provider/reset", g.handleBreakerReset)
	}

	return engine
}

// Start runs the HTTP server until Stop is called.
func (g *Gateway) Start() error {
	g.logger.WithField("addr", g.server.Addr).Info("Starting router service")
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down and closes connections.
func (g *Gateway) Stop(ctx context.Context) error {
	if err := g.server.Shutdown(ctx); err != nil {
		return err
	}
	if err := g.redis.Close(); err != nil {
		g.logger.WithError(err).Warn("Failed to close Redis connection")
	}
	if err := g.db.Close(); err != nil {
		g.logger.WithError(err).Warn("Failed to close database connection")
	}
	return nil
}
