package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminRefreshMetrics enqueues an immediate metrics sweep; the worker
// picks it off the stream like the scheduled ones.
func (h HandlerSet) AdminRefreshMetrics(c *gin.Context) {
	messageID, err := h.queue.EnqueueSweep(c.Request.Context(), "admin")
	if err != nil {
		h.log.Error().Err(err).Msg("enqueue admin metrics sweep failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":    "enqueued",
		"messageId": messageID,
	})
}
