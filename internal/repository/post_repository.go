package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/ids"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

const postColumns = `
	id, job_id, creator_id, platform, post_url, platform_post_id,
	views, likes, comments, shares, last_metrics_sync, metrics_sync_error,
	created_at
`

func scanPost(row pgx.Row) (models.SocialPost, error) {
	var p models.SocialPost
	err := row.Scan(
		&p.ID,
		&p.JobID,
		&p.CreatorID,
		&p.Platform,
		&p.PostURL,
		&p.PlatformPostID,
		&p.Views,
		&p.Likes,
		&p.Comments,
		&p.Shares,
		&p.LastMetricsSync,
		&p.MetricsSyncError,
		&p.CreatedAt,
	)
	return p, err
}

// Create registers a social post claim. The (platform, post_url) unique
// constraint maps to ErrPostExists.
func (r *PostRepository) Create(ctx context.Context, jobID string, creatorID int64, platform models.Platform, postURL, platformPostID string) (models.SocialPost, error) {
	postID := ids.New()
	const query = `
		INSERT INTO social_posts (id, job_id, creator_id, platform, post_url, platform_post_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + postColumns

	post, err := scanPost(r.pool.QueryRow(ctx, query, postID, jobID, creatorID, platform, postURL, platformPostID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.SocialPost{}, ErrPostExists
		}
		return models.SocialPost{}, err
	}
	return post, nil
}

func (r *PostRepository) GetByID(ctx context.Context, postID string) (models.SocialPost, error) {
	const query = `SELECT ` + postColumns + ` FROM social_posts WHERE id = $1`
	post, err := scanPost(r.pool.QueryRow(ctx, query, postID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SocialPost{}, ErrPostNotFound
		}
		return models.SocialPost{}, err
	}
	return post, nil
}

// ListForRefresh returns posts in ascending last-sync order so the
// stalest metrics are refreshed first.
func (r *PostRepository) ListForRefresh(ctx context.Context, limit int) ([]models.SocialPost, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM social_posts
		ORDER BY last_metrics_sync ASC NULLS FIRST
		LIMIT $1
	`
	return r.queryPosts(ctx, query, limit)
}

func (r *PostRepository) ListByJob(ctx context.Context, jobID string) ([]models.SocialPost, error) {
	const query = `SELECT ` + postColumns + ` FROM social_posts WHERE job_id = $1 ORDER BY created_at`
	return r.queryPosts(ctx, query, jobID)
}

// UpdateMetrics stores a scrape snapshot and clears any previous sync
// error. The platform post id is backfilled when the scraper resolved one.
func (r *PostRepository) UpdateMetrics(ctx context.Context, postID string, m models.PostMetrics) error {
	const query = `
		UPDATE social_posts
		SET views = $2,
		    likes = $3,
		    comments = $4,
		    shares = $5,
		    platform_post_id = CASE WHEN $6 <> '' THEN $6 ELSE platform_post_id END,
		    last_metrics_sync = $7,
		    metrics_sync_error = NULL
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, postID, m.Views, m.Likes, m.Comments, m.Shares, m.PostID, time.Now().UTC())
	return err
}

// RecordSyncError stamps the sync attempt and keeps the previous counters.
func (r *PostRepository) RecordSyncError(ctx context.Context, postID string, syncErr string) error {
	const query = `
		UPDATE social_posts
		SET last_metrics_sync = $2, metrics_sync_error = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, postID, time.Now().UTC(), syncErr)
	return err
}

type CampaignTotals struct {
	Creators    int64
	ReadyVideos int64
	Posts       int64
	Views       int64
	Engagements int64
}

// Totals computes campaign-wide aggregates with a fresh scan.
func (r *PostRepository) Totals(ctx context.Context) (CampaignTotals, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM creators),
			(SELECT COUNT(*) FROM video_jobs WHERE status = 'ready'),
			(SELECT COUNT(*) FROM social_posts),
			(SELECT COALESCE(SUM(views), 0) FROM social_posts),
			(SELECT COALESCE(SUM(likes + comments + shares), 0) FROM social_posts)
	`
	var totals CampaignTotals
	err := r.pool.QueryRow(ctx, query).Scan(
		&totals.Creators,
		&totals.ReadyVideos,
		&totals.Posts,
		&totals.Views,
		&totals.Engagements,
	)
	return totals, err
}

func (r *PostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]models.SocialPost, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.SocialPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
