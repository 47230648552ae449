package models

import "time"

type Creator struct {
	TGUserID         int64
	Username         string
	DisplayName      string
	Banned           bool
	CooldownUntil    *time.Time
	Strikes          int
	TotalViews       int64
	TotalVideos      int64
	TotalEngagements int64
	TotalShares      int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InCooldown reports whether the creator is still cooling down at the
// given instant.
func (c Creator) InCooldown(now time.Time) bool {
	return c.CooldownUntil != nil && now.Before(*c.CooldownUntil)
}
