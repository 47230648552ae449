package models

import "time"

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusReady   JobStatus = "ready"
	JobStatusFailed  JobStatus = "failed"
)

// Terminal reports whether a job can no longer change status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

// VideoJob is one user-requested generation attempt, created in pending
// status before the provider is called and resolved to exactly one of
// ready or failed.
type VideoJob struct {
	ID              string
	CreatorID       int64
	Prompt          string
	PromptSHA256    string
	EnhancedPrompt  string
	Category        string
	DurationSeconds int
	Status          JobStatus
	ProviderJobID   *string
	VideoURL        *string
	ThumbnailURL    *string
	// URLDurable is false when asset relocation failed and VideoURL still
	// points at the provider's ephemeral location; those rows need repair.
	URLDurable bool
	Caption    string
	Hashtags   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
