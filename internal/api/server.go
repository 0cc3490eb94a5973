package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/concave-dev/cmdq/internal/api/handlers"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/netutil"
	"github.com/concave-dev/cmdq/internal/queue"
	"github.com/concave-dev/cmdq/internal/transport"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Represents the cmdq API server
type Server struct {
	queue       *queue.Queue
	responder   transport.Responder
	limiter     *rate.Limiter // nil when intake is unlimited
	waitTimeout time.Duration
	version     string
	startTime   time.Time
	httpServer  *http.Server
	bindAddr    string
	bindPort    int
}

// NewServer creates a new API server instance
func NewServer(config *Config) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst)
	}

	return &Server{
		queue:       config.Queue,
		responder:   config.Responder,
		limiter:     limiter,
		waitTimeout: config.WaitTimeout,
		version:     config.Version,
		startTime:   time.Now(),
		bindAddr:    config.BindAddr,
		bindPort:    config.BindPort,
	}
}

// Start starts the API server
func (s *Server) Start() error {
	logging.Info("Starting HTTP API server on %s", s.Addr())

	// Configure Gin logging only if not already configured by CLI tools
	if !logging.IsConfiguredByCLI() {
		gin.DefaultWriter = logging.NewLevelWriter("INFO", "gin")
		gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")
	}

	// Create HTTP server. WriteTimeout leaves room for requests that wait on
	// a result.
	s.httpServer = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.waitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Bind once and serve on the held listener
	listener, err := netutil.BindTCP(s.bindAddr, s.bindPort)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server failed: %v", err)
		}
	}()

	logging.Success("HTTP API server started successfully")
	return nil
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(s.loggingMiddleware())
	router.Use(s.corsMiddleware())
	router.Use(gin.Recovery())

	s.setupRoutes(router)
	return router
}

// Addr returns the host:port the server binds to
func (s *Server) Addr() string {
	return net.JoinHostPort(s.bindAddr, fmt.Sprintf("%d", s.bindPort))
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// getHandlerHealth is a health endpoint handler factory
func (s *Server) getHandlerHealth() gin.HandlerFunc {
	return handlers.HandleHealth(s.queue, s.version, s.startTime)
}

// getHandlerEnqueue is a command intake handler factory
func (s *Server) getHandlerEnqueue() gin.HandlerFunc {
	return handlers.EnqueueCommand(s.queue, s.waitTimeout)
}

// getHandlerProcess is a manual flush handler factory
func (s *Server) getHandlerProcess() gin.HandlerFunc {
	return handlers.ProcessQueue(s.queue, s.waitTimeout)
}

// getHandlerStart is a start processing handler factory
func (s *Server) getHandlerStart() gin.HandlerFunc {
	return handlers.StartQueue(s.queue)
}

// getHandlerStats is a queue stats handler factory
func (s *Server) getHandlerStats() gin.HandlerFunc {
	return handlers.QueueStats(s.queue)
}

// getHandlerBatch is a batch endpoint handler factory
func (s *Server) getHandlerBatch() gin.HandlerFunc {
	return handlers.HandleBatch(s.responder)
}
