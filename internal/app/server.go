// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"identity_backend/internal/auth"
	"identity_backend/internal/config"
	"identity_backend/internal/jobs"
	"identity_backend/internal/middleware"
	"identity_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	userHandler *user.Handler
	authHandler *auth.Handler

	cleanupJob *jobs.RefreshTokenCleanupJob
}

// newCORSConfig reports false when no origin is allowed. Only an explicit
// origin list gets credentialed CORS; "*" is served without credentials.
func newCORSConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	for _, o := range origins {
		if o == "*" {
			corsConfig.AllowAllOrigins = true
			return corsConfig, true
		}
	}
	corsConfig.AllowOrigins = origins
	corsConfig.AllowCredentials = true
	return corsConfig, true
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userHandler *user.Handler,
	authHandler *auth.Handler,
	gate *auth.Gate,
	cleanupJob *jobs.RefreshTokenCleanupJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMetrics("identity"))

	if corsConfig, ok := newCORSConfig(cfg.AllowedOrigins()); ok {
		router.Use(cors.New(corsConfig))
	} else {
		logger.Info("CORS_ALLOWED_ORIGINS is empty; cross-origin requests are not allowed")
	}

	guard := middleware.Guard(gate, cfg.AccessTokenCookie, logger.Named("AuthMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Identity API is healthy!"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api, guard)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:  httpServer,
		router:      router,
		cfg:         cfg,
		logger:      logger,
		userHandler: userHandler,
		authHandler: authHandler,
		cleanupJob:  cleanupJob,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if s.cleanupJob != nil {
		if err := s.cleanupJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start refresh token cleanup job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.cleanupJob != nil {
		s.cleanupJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
