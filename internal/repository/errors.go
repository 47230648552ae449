package repository

import (
	"errors"
	"fmt"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

var (
	ErrCreatorNotFound = errors.New("creator not found")
	ErrJobNotFound     = errors.New("job not found")
	ErrPostNotFound    = errors.New("post not found")

	// ErrPostExists is returned when a (platform, url) pair is already
	// registered.
	ErrPostExists = errors.New("post already registered")
)

// DuplicateJobError is returned by ReservePending when an in-flight job
// with the same prompt already exists for the creator. It carries the
// conflicting job id so the caller can reference it to the user.
type DuplicateJobError struct {
	ExistingJobID string
	Status        models.JobStatus
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("duplicate job: %s already %s", e.ExistingJobID, e.Status)
}

// InvalidTransitionError signals a finalize call against a job that is not
// in the expected state. It indicates a logic bug upstream and is logged
// loudly rather than swallowed.
type InvalidTransitionError struct {
	JobID string
	From  models.JobStatus
	To    models.JobStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for job %s: %s -> %s", e.JobID, e.From, e.To)
}
