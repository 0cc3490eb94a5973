package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Represents the health check response
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	QueueStarted bool      `json:"queue_started"`
	QueueLength  int       `json:"queue_length"`
}

// HandleHealth returns the health status of the API server and whether the
// queue has started processing
func HandleHealth(q CommandQueue, version string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		uptime := time.Since(startTime)
		stats := q.Stats()

		response := HealthResponse{
			Status:       "healthy",
			Timestamp:    time.Now(),
			Version:      version,
			Uptime:       uptime.String(),
			QueueStarted: stats.Started,
			QueueLength:  stats.Length,
		}

		c.JSON(http.StatusOK, response)
	}
}
