package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/railzwaylabs/sagalog/internal/api/middleware"
	"github.com/railzwaylabs/sagalog/internal/config"
	"github.com/railzwaylabs/sagalog/internal/pipeline"
	"github.com/railzwaylabs/sagalog/internal/transition"
)

type Router struct {
	engine   *gin.Engine
	server   *http.Server
	cfg      *config.Config
	service  *pipeline.Service
	registry *transition.Registry
	logger   *zap.Logger
}

func NewRouter(
	cfg *config.Config,
	service *pipeline.Service,
	registry *transition.Registry,
	logger *zap.Logger,
) *Router {
	// Disable GIN default logger
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(logger.Named("http")))

	api := &Router{
		engine:   r,
		cfg:      cfg,
		service:  service,
		registry: registry,
		logger:   logger,
	}

	api.RegisterRoutes()
	return api
}

func (r *Router) RegisterRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.engine.GET("/events/:id", r.GetEvent)
	r.engine.GET("/transitions", r.ListTransitions)

	tx := r.engine.Group("/transactions")
	{
		tx.POST("", r.CreateTransaction)
		tx.GET("/:id/events", r.ListTransactionEvents)
		tx.POST("/:id/events", r.EnqueueEvent)
	}
}

// Handler exposes the engine for tests and embedding.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) Run() error {
	r.server = &http.Server{
		Addr:         ":" + r.cfg.Port,
		Handler:      r.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return r.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
