package handlers

import (
	"net/http"

	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/transport"
	"github.com/gin-gonic/gin"
)

// HandleBatch answers a batch request with one result per command, in
// request order.
//
// POST /api/v1/batch
//
// The batch ID comes from the body, falling back to the X-Cmdq-Batch-ID
// header, and is echoed in the response.
func HandleBatch(r transport.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transport.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logging.Warn("Batch: Invalid request body: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid batch request",
				"details": err.Error(),
			})
			return
		}

		if req.ID == "" {
			req.ID = c.GetHeader(transport.BatchIDHeader)
		}

		resp := transport.Answer(req, r)
		logging.Debug("Batch: answered batch %s with %d results", logging.FormatBatchID(req.ID), len(resp.Results))
		c.JSON(http.StatusOK, resp)
	}
}
