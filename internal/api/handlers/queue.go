// Package handlers provides HTTP request handlers for the cmdq API server.
//
// QUEUE ENDPOINTS:
//   - POST /api/v1/commands: enqueue a command, optionally waiting for its result
//   - POST /api/v1/queue/process: close the current buffer now
//   - POST /api/v1/queue/start: start processing held commands
//   - GET /api/v1/queue/stats: queue counters
//
// BATCH ENDPOINT:
//   - POST /api/v1/batch: answers a whole batch with one result per command.
//     The HTTP transport of a cmdq daemon posts its closed batches here.
//
// Handlers are factories returning gin.HandlerFunc so dependencies are bound
// once at route setup.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/concave-dev/cmdq/internal/command"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/queue"
	"github.com/gin-gonic/gin"
)

// CommandQueue is the part of *queue.Queue the handlers need.
type CommandQueue interface {
	Enqueue(cmd command.Command)
	StartProcessing()
	Process()
	Flush(ctx context.Context) error
	Length() int
	Stats() queue.Stats
}

// QueueActionResponse is returned by the process and start endpoints.
type QueueActionResponse struct {
	Status      string `json:"status"`
	QueueLength int    `json:"queue_length"`
}

// ProcessQueue closes the current buffer immediately.
//
// POST /api/v1/queue/process[?wait=true]
//
// Without wait the request returns 202 as soon as the buffer is closed. With
// wait=true it returns 200 once every batch closed so far has completed its
// round trip, or 504 when waitTimeout passes first.
func ProcessQueue(q CommandQueue, waitTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		wait, err := strconv.ParseBool(c.DefaultQuery("wait", "false"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid wait parameter",
				"details": err.Error(),
			})
			return
		}

		if !wait {
			q.Process()
			c.JSON(http.StatusAccepted, QueueActionResponse{
				Status:      "processing",
				QueueLength: q.Length(),
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), waitTimeout)
		defer cancel()

		if err := q.Flush(ctx); err != nil {
			switch {
			case errors.Is(err, queue.ErrClosed):
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error":   "Queue is shutting down",
					"details": err.Error(),
				})
			case errors.Is(err, context.DeadlineExceeded):
				logging.Warn("Process: flush did not finish within %s", waitTimeout)
				c.JSON(http.StatusGatewayTimeout, gin.H{
					"error":   "Timed out waiting for flush",
					"details": err.Error(),
				})
			default:
				// Client went away
				logging.Debug("Process: flush wait abandoned: %v", err)
			}
			return
		}

		c.JSON(http.StatusOK, QueueActionResponse{
			Status:      "flushed",
			QueueLength: q.Length(),
		})
	}
}

// StartQueue starts processing. Repeated calls are harmless.
//
// POST /api/v1/queue/start
func StartQueue(q CommandQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		q.StartProcessing()
		c.JSON(http.StatusOK, QueueActionResponse{
			Status:      "started",
			QueueLength: q.Length(),
		})
	}
}

// QueueStats returns the queue counters.
//
// GET /api/v1/queue/stats
func QueueStats(q CommandQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, q.Stats())
	}
}
