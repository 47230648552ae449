package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type videoItem struct {
	ID           string    `json:"id"`
	CreatorID    int64     `json:"creatorId"`
	Prompt       string    `json:"prompt"`
	Category     string    `json:"category"`
	Duration     int       `json:"durationSeconds"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	Durable      bool      `json:"urlDurable"`
	Caption      string    `json:"caption"`
	Hashtags     string    `json:"hashtags"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	Comments     int64     `json:"comments"`
	Shares       int64     `json:"shares"`
	Posts        int       `json:"posts"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListVideos returns ready videos with engagement rolled up across the
// social posts claimed for each one.
func (h HandlerSet) ListVideos(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	jobs, err := h.jobs.ListReady(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list ready jobs failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	items := make([]videoItem, 0, len(jobs))
	for _, job := range jobs {
		item := videoItem{
			ID:           job.ID,
			CreatorID:    job.CreatorID,
			Prompt:       job.Prompt,
			Category:     job.Category,
			Duration:     job.DurationSeconds,
			ThumbnailURL: job.ThumbnailURL,
			Durable:      job.URLDurable,
			Caption:      job.Caption,
			Hashtags:     job.Hashtags,
			CreatedAt:    job.CreatedAt,
		}
		if job.VideoURL != nil {
			item.VideoURL = *job.VideoURL
		}

		posts, err := h.posts.ListByJob(c.Request.Context(), job.ID)
		if err != nil {
			h.log.Error().Err(err).Str("job_id", job.ID).Msg("list posts for job failed")
		}
		for _, post := range posts {
			item.Views += post.Views
			item.Likes += post.Likes
			item.Comments += post.Comments
			item.Shares += post.Shares
		}
		item.Posts = len(posts)

		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
