package api

import (
	"github.com/gin-gonic/gin"
)

// Configures all API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// API version prefix
	v1 := router.Group("/api/v1")

	// Health check endpoint
	v1.GET("/health", s.getHandlerHealth())

	// Command intake, rate limited when configured
	v1.POST("/commands", s.rateLimitMiddleware(), s.getHandlerEnqueue())

	// Queue control endpoints
	q := v1.Group("/queue")
	{
		q.POST("/process", s.getHandlerProcess())
		q.POST("/start", s.getHandlerStart())
		q.GET("/stats", s.getHandlerStats())
	}

	// Batch endpoint for the HTTP transport
	v1.POST("/batch", s.getHandlerBatch())
}
