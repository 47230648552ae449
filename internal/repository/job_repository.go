package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/ids"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

// JobRepository is the ledger for video generation jobs. All status changes
// go through the three transitions below; nothing else mutates job rows.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// PromptHash returns the hex sha256 of the exact prompt text, the key the
// in-flight dedupe index is built on.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

const jobColumns = `
	id, creator_id, prompt, prompt_sha256, enhanced_prompt, category,
	duration_seconds, status, provider_job_id, video_url, thumbnail_url,
	url_durable, caption, hashtags, created_at, updated_at
`

func scanJob(row pgx.Row) (models.VideoJob, error) {
	var j models.VideoJob
	err := row.Scan(
		&j.ID,
		&j.CreatorID,
		&j.Prompt,
		&j.PromptSHA256,
		&j.EnhancedPrompt,
		&j.Category,
		&j.DurationSeconds,
		&j.Status,
		&j.ProviderJobID,
		&j.VideoURL,
		&j.ThumbnailURL,
		&j.URLDurable,
		&j.Caption,
		&j.Hashtags,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	return j, err
}

// ReservePending inserts a pending job row before any provider call is
// made. The partial unique index on (creator_id, prompt_sha256) WHERE
// status = 'pending' turns a concurrent duplicate reservation into a
// unique violation, which is mapped to DuplicateJobError so exactly one of
// the racing requests proceeds to submission.
func (r *JobRepository) ReservePending(ctx context.Context, creatorID int64, prompt, category string, durationSeconds int) (string, error) {
	jobID := ids.New()
	hash := PromptHash(prompt)

	const query = `
		INSERT INTO video_jobs (id, creator_id, prompt, prompt_sha256, category, duration_seconds, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	`
	_, err := r.pool.Exec(ctx, query, jobID, creatorID, prompt, hash, category, durationSeconds)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			existing, lookupErr := r.FindInFlightDuplicate(ctx, creatorID, prompt, time.Now().Add(-24*time.Hour))
			if lookupErr == nil && existing != nil {
				return "", &DuplicateJobError{ExistingJobID: existing.ID, Status: existing.Status}
			}
			return "", &DuplicateJobError{}
		}
		return "", err
	}
	return jobID, nil
}

// FindInFlightDuplicate returns the most recent job by the creator with
// byte-identical prompt text created since the given time that is still
// pending or already ready, or nil when there is none. Used by the
// eligibility guard; always reads the datastore fresh.
func (r *JobRepository) FindInFlightDuplicate(ctx context.Context, creatorID int64, prompt string, since time.Time) (*models.VideoJob, error) {
	const query = `
		SELECT ` + jobColumns + `
		FROM video_jobs
		WHERE creator_id = $1
		  AND prompt_sha256 = $2
		  AND prompt = $3
		  AND status IN ('pending', 'ready')
		  AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`
	job, err := scanJob(r.pool.QueryRow(ctx, query, creatorID, PromptHash(prompt), prompt, since))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// CountCreatedSince counts jobs the creator has created at or after the
// given instant, regardless of status. Rejected prompts never reach the
// ledger, so this is exactly the number of reservations.
func (r *JobRepository) CountCreatedSince(ctx context.Context, creatorID int64, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM video_jobs WHERE creator_id = $1 AND created_at >= $2`
	var count int
	if err := r.pool.QueryRow(ctx, query, creatorID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type FinalizeReadyParams struct {
	AssetURL       string
	ThumbnailURL   *string
	URLDurable     bool
	ProviderJobID  string
	EnhancedPrompt string
	ActualDuration int
	Caption        string
	Hashtags       string
}

// FinalizeReady transitions pending -> ready. Any other starting state is
// an InvalidTransitionError.
func (r *JobRepository) FinalizeReady(ctx context.Context, jobID string, params FinalizeReadyParams) error {
	const query = `
		UPDATE video_jobs
		SET status = 'ready',
		    video_url = $2,
		    thumbnail_url = $3,
		    url_durable = $4,
		    provider_job_id = $5,
		    enhanced_prompt = $6,
		    duration_seconds = $7,
		    caption = $8,
		    hashtags = $9,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, jobID,
		params.AssetURL,
		params.ThumbnailURL,
		params.URLDurable,
		params.ProviderJobID,
		params.EnhancedPrompt,
		params.ActualDuration,
		params.Caption,
		params.Hashtags,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, jobID, models.JobStatusReady)
	}
	return nil
}

// FinalizeFailed transitions pending -> failed. Calling it on a job that
// already failed is a no-op; any other state is an InvalidTransitionError.
func (r *JobRepository) FinalizeFailed(ctx context.Context, jobID string) error {
	const query = `
		UPDATE video_jobs
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		job, getErr := r.GetByID(ctx, jobID)
		if getErr != nil {
			return getErr
		}
		if job.Status == models.JobStatusFailed {
			return nil
		}
		return &InvalidTransitionError{JobID: jobID, From: job.Status, To: models.JobStatusFailed}
	}
	return nil
}

func (r *JobRepository) transitionError(ctx context.Context, jobID string, to models.JobStatus) error {
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	return &InvalidTransitionError{JobID: jobID, From: job.Status, To: to}
}

func (r *JobRepository) GetByID(ctx context.Context, jobID string) (models.VideoJob, error) {
	const query = `SELECT ` + jobColumns + ` FROM video_jobs WHERE id = $1`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoJob{}, ErrJobNotFound
		}
		return models.VideoJob{}, err
	}
	return job, nil
}

func (r *JobRepository) ListByCreator(ctx context.Context, creatorID int64, limit int) ([]models.VideoJob, error) {
	const query = `
		SELECT ` + jobColumns + `
		FROM video_jobs
		WHERE creator_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryJobs(ctx, query, creatorID, limit)
}

// ListReady returns ready jobs newest first, for the public gallery API.
func (r *JobRepository) ListReady(ctx context.Context, limit, offset int) ([]models.VideoJob, error) {
	const query = `
		SELECT ` + jobColumns + `
		FROM video_jobs
		WHERE status = 'ready'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryJobs(ctx, query, limit, offset)
}

func (r *JobRepository) CountByStatus(ctx context.Context, status models.JobStatus) (int64, error) {
	const query = `SELECT COUNT(*) FROM video_jobs WHERE status = $1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *JobRepository) queryJobs(ctx context.Context, query string, args ...any) ([]models.VideoJob, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.VideoJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
