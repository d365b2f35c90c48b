package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aman-churiwal/image-relay/internal/circuitbreaker"
	"github.com/aman-churiwal/image-relay/internal/config"
	"github.com/aman-churiwal/image-relay/internal/handler"
	"github.com/aman-churiwal/image-relay/internal/metrics"
	"github.com/aman-churiwal/image-relay/internal/middleware"
	"github.com/aman-churiwal/image-relay/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the HTTP layer is wired to. AdminAuth and History
// are optional.
type Deps struct {
	Quota        *service.QuotaService
	Orchestrator handler.Orchestrator
	AdminAuth    *service.AdminAuthService
	History      handler.GenerationHistory
	Breakers     []*circuitbreaker.CircuitBreaker
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       *zap.Logger
}

type Server struct {
	router        *gin.Engine
	config        *config.Config
	deps          Deps
	logger        *zap.Logger
	promptHandler *handler.PromptHandler
	httpServer    *http.Server
}

func New(cfg *config.Config, deps Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		router:        gin.New(),
		config:        cfg,
		deps:          deps,
		logger:        deps.Logger,
		promptHandler: handler.NewPromptHandler(deps.Orchestrator),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS())
	if s.deps.Metrics != nil {
		s.router.Use(middleware.Metrics(s.deps.Metrics))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.promptHandler.Root)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/prompt",
		s.promptHandler.Validate,
		middleware.QuotaGate(s.deps.Quota, handler.ClientID),
		s.promptHandler.Generate,
	)

	if s.deps.Gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	if s.deps.AdminAuth == nil {
		return
	}

	adminHandler := handler.NewAdminHandler(s.deps.AdminAuth, s.deps.Quota, s.deps.History)
	systemHandler := handler.NewSystemHandler(s.deps.Breakers...)

	s.router.POST("/admin/login", adminHandler.Login)

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAdmin(s.deps.AdminAuth))
	{
		admin.GET("/clients/:id", adminHandler.GetClient)
		admin.PUT("/clients/:id/tier", adminHandler.SetTier)
		admin.POST("/clients/:id/reset", adminHandler.Reset)
		admin.GET("/clients/:id/generations", adminHandler.Generations)
		admin.GET("/circuit-breaker", systemHandler.CircuitBreakerStatus)
		admin.POST("/circuit-breaker/reset", systemHandler.ResetCircuitBreaker)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storeHealthy := true
	if err := s.deps.Quota.Ping(ctx); err != nil {
		storeHealthy = false
		s.logger.Warn("store health check failed", zap.Error(err))
	}

	breakers := make(gin.H, len(s.deps.Breakers))
	for _, cb := range s.deps.Breakers {
		breakers[cb.Name()] = cb.State().String()
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !storeHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "image-relay",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(startTime).Seconds(),
		"checks": gin.H{
			"store":    storeHealthy,
			"breakers": breakers,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Generation can take minutes; the orchestrator enforces its own bound.
		WriteTimeout: 4 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting image relay",
		zap.String("addr", addr),
		zap.String("environment", s.config.Environment),
	)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

var startTime = time.Now()
