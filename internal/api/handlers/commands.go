package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/concave-dev/cmdq/internal/command"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/gin-gonic/gin"
)

// EnqueueRequest is the body of POST /api/v1/commands.
type EnqueueRequest struct {
	Name      string            `json:"name" binding:"required"`
	QueryData map[string]string `json:"query_data,omitempty"`
	Wait      bool              `json:"wait"`
}

// EnqueueResponse reports an accepted command. Result is only set when the
// request waited for it.
type EnqueueResponse struct {
	Status      string         `json:"status"`
	Name        string         `json:"name"`
	QueueLength int            `json:"queue_length"`
	Result      command.Result `json:"result,omitempty"`
}

// EnqueueCommand adds a command to the queue.
//
// POST /api/v1/commands
//
// Returns 202 right away unless the body sets wait. A waiting request gets 200
// with the command's result once its batch comes back, or 504 after
// waitTimeout. Failed batches never call back, so a waiting request for a
// command in a failed batch always ends in 504.
func EnqueueCommand(q CommandQueue, waitTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EnqueueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logging.Warn("Enqueue: Invalid request body: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}

		cmd := command.Command{Name: req.Name, QueryData: req.QueryData}
		if err := cmd.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid command",
				"details": err.Error(),
			})
			return
		}

		if !req.Wait {
			q.Enqueue(cmd)
			logging.Debug("Enqueue: accepted %s", cmd)
			c.JSON(http.StatusAccepted, EnqueueResponse{
				Status:      "queued",
				Name:        cmd.Name,
				QueueLength: q.Length(),
			})
			return
		}

		done := make(chan command.Result, 1)
		cmd.Callback = func(result command.Result) {
			done <- result
		}
		q.Enqueue(cmd)

		timer := time.NewTimer(waitTimeout)
		defer timer.Stop()

		select {
		case result := <-done:
			c.JSON(http.StatusOK, EnqueueResponse{
				Status:      "completed",
				Name:        cmd.Name,
				QueueLength: q.Length(),
				Result:      result,
			})

		case <-timer.C:
			logging.Warn("Enqueue: no result for %s within %s", cmd.Name, waitTimeout)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error":   "Timed out waiting for command result",
				"details": fmt.Sprintf("no result for %s within %s", cmd.Name, waitTimeout),
			})

		case <-c.Request.Context().Done():
			logging.Debug("Enqueue: client stopped waiting for %s", cmd.Name)
		}
	}
}
