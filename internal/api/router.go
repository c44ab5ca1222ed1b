package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/pow-ledger/internal/api/handlers"
	"github.com/thanhnp/pow-ledger/internal/api/middleware"
	"github.com/thanhnp/pow-ledger/internal/config"
	"github.com/thanhnp/pow-ledger/internal/ledger"
	"github.com/thanhnp/pow-ledger/internal/notifier"
)

// Router wraps the Gin router with handlers
type Router struct {
	engine       *gin.Engine
	logger       *slog.Logger
	rateLimit    config.RateLimitConfig
	blockHandler *handlers.BlockHandler
	chainHandler *handlers.ChainHandler
	eventHandler *handlers.EventHandler
}

// NewRouter creates a new Router with all handlers
func NewRouter(
	l *ledger.Service,
	n *notifier.MiningNotifier,
	rateLimit config.RateLimitConfig,
	logger *slog.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:       gin.New(),
		logger:       logger,
		rateLimit:    rateLimit,
		blockHandler: handlers.NewBlockHandler(l),
		chainHandler: handlers.NewChainHandler(l, n),
	}
	if n != nil {
		r.eventHandler = handlers.NewEventHandler(n, logger)
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// setupMiddleware configures middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS())
}

// setupRoutes configures API routes
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/chain", r.chainHandler.Info)
		v1.GET("/validate", r.chainHandler.Validate)
		v1.GET("/stats", r.chainHandler.Stats)

		// Block routes
		blocks := v1.Group("/blocks")
		{
			blocks.GET("", r.blockHandler.List)
			blocks.GET("/latest", r.blockHandler.GetLatest)
			blocks.GET("/:index", r.blockHandler.GetByIndex)
			blocks.POST("", middleware.RateLimit(r.rateLimit.RPS, r.rateLimit.Burst), r.blockHandler.Add)
		}

		v1.POST("/debug/tamper", r.chainHandler.Tamper)

		if r.eventHandler != nil {
			v1.GET("/events", r.eventHandler.Stream)
		}
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
