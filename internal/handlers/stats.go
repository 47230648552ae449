package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) Stats(c *gin.Context) {
	totals, err := h.posts.Totals(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("campaign totals query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"creators":    totals.Creators,
		"readyVideos": totals.ReadyVideos,
		"posts":       totals.Posts,
		"views":       totals.Views,
		"engagements": totals.Engagements,
	})
}

func (h HandlerSet) Leaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	creators, err := h.creators.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("leaderboard query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]gin.H, 0, len(creators))
	for rank, creator := range creators {
		name := creator.DisplayName
		if name == "" {
			name = creator.Username
		}
		items = append(items, gin.H{
			"rank":        rank + 1,
			"name":        name,
			"videos":      creator.TotalVideos,
			"views":       creator.TotalViews,
			"engagements": creator.TotalEngagements,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
