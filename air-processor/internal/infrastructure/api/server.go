package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/config"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/models"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

// MergeService is the slice of the merge pipeline the API needs.
type MergeService interface {
	RunMerge(ctx context.Context, trigger string) (*models.MergeRun, error)
	LatestRun(ctx context.Context) (*models.MergeRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.MergeRun, error)
	HealthCheck(ctx context.Context) error
}

// ObservationService reads the production and raw stores.
type ObservationService interface {
	FindObservations(ctx context.Context, filter ports.ObservationFilter) ([]*entities.Observation, error)
	GetObservation(ctx context.Context, stationID int, timestamp time.Time) (*entities.Observation, error)
	CountRaw(ctx context.Context) (int64, error)
	CountProduction(ctx context.Context) (int64, error)
	HealthCheck(ctx context.Context) error
}

// HealthChecker lets the health endpoint report on any wired component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type API interface {
	setupRoutes()
	Start() error
	Stop(ctx context.Context) error
}

type APIServer struct {
	server         *http.Server
	router         *gin.Engine
	handler        *APIHandler
	middleware     *Middleware
	metricsHandler http.Handler
	config         *config.Config
	logger         logger.Logger
}

func NewAPIServer(
	mergeService MergeService,
	observationService ObservationService,
	components map[string]HealthChecker,
	metricsHandler http.Handler,
	middleware *Middleware,
	cfg *config.Config,
) *APIServer {
	gin.SetMode(gin.ReleaseMode)
	if cfg.App.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	handler := NewAPIHandler(mergeService, observationService, components)

	return &APIServer{
		router:         router,
		handler:        handler,
		middleware:     middleware,
		metricsHandler: metricsHandler,
		config:         cfg,
		logger:         logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("component", "api_server"),
	}
}

func (s *APIServer) setupRoutes() {
	api := s.router.Group(s.config.API.BasePath)

	api.Use(s.middleware.Recovery())
	api.Use(s.middleware.Logging())
	api.Use(s.middleware.CORS())
	api.Use(s.middleware.RateLimit())

	api.GET("/health", s.handler.HealthCheck)
	api.GET("/stats", s.handler.GetStats)
	api.GET("/observations", s.handler.GetObservations)

	runs := api.Group("/runs")
	{
		runs.GET("", s.handler.GetRuns)
		runs.GET("/latest", s.handler.GetLatestRun)
	}

	api.POST("/merge", s.handler.TriggerMerge)

	if s.config.API.EnableMetrics && s.metricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(s.metricsHandler))
		s.logger.Info("Prometheus metrics enabled at /metrics")
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": fmt.Sprintf("Route %s not found", c.Request.URL.Path),
		})
	})
}

func (s *APIServer) Start() error {
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.App.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Infof("Starting API server on port %d", s.config.App.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	return nil
}

func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.App.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}
