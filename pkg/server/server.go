package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soundprediction/pathfinder"
	"github.com/soundprediction/pathfinder/pkg/config"
	"github.com/soundprediction/pathfinder/pkg/server/handlers"
	"github.com/soundprediction/pathfinder/pkg/types"
)

// SessionHeader carries the session id of a request and its response.
const SessionHeader = "X-Session-ID"

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	finder pathfinder.PathFinder
	server *http.Server
	logger *slog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, finder pathfinder.PathFinder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		finder: finder,
		logger: logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the configured router. Setup must have been called.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.finder)
	pathsHandler := handlers.NewPathsHandler(s.finder, s.config.Explore.MaxHops, s.logger)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/healthcheck", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/paths", pathsHandler.FindPath)
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+SessionHeader)
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextMiddleware stores the session id and request source in the request
// context. A session id is generated when the client sends none.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, types.ContextKeySessionID, sessionID)
		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")
		c.Header(SessionHeader, sessionID)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
