package models

import "time"

type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
	PlatformYouTube   Platform = "youtube"
	PlatformUnknown   Platform = "unknown"
)

// SocialPost is a creator's claim that a generated video was published on
// an external platform. (platform, post URL) pairs are unique.
type SocialPost struct {
	ID               string
	JobID            string
	CreatorID        int64
	Platform         Platform
	PostURL          string
	PlatformPostID   string
	Views            int64
	Likes            int64
	Comments         int64
	Shares           int64
	LastMetricsSync  *time.Time
	MetricsSyncError *string
	CreatedAt        time.Time
}

// PostMetrics is one scraped snapshot of a post's public counters.
type PostMetrics struct {
	Views    int64
	Likes    int64
	Comments int64
	Shares   int64
	PostID   string
}
