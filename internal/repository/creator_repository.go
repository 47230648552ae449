package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

type CreatorRepository struct {
	pool *pgxpool.Pool
}

func NewCreatorRepository(pool *pgxpool.Pool) *CreatorRepository {
	return &CreatorRepository{pool: pool}
}

const creatorColumns = `
	tg_user_id, username, display_name, is_banned, cooldown_until, strikes,
	total_views, total_videos, total_engagements, total_shares,
	created_at, updated_at
`

func scanCreator(row pgx.Row) (models.Creator, error) {
	var c models.Creator
	err := row.Scan(
		&c.TGUserID,
		&c.Username,
		&c.DisplayName,
		&c.Banned,
		&c.CooldownUntil,
		&c.Strikes,
		&c.TotalViews,
		&c.TotalVideos,
		&c.TotalEngagements,
		&c.TotalShares,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// GetOrCreate returns the creator row, inserting it on first interaction.
// Username and display name are refreshed on every call so renames are
// picked up.
func (r *CreatorRepository) GetOrCreate(ctx context.Context, tgUserID int64, username, displayName string) (models.Creator, error) {
	const query = `
		INSERT INTO creators (tg_user_id, username, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tg_user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    display_name = EXCLUDED.display_name,
		    updated_at = NOW()
		RETURNING ` + creatorColumns

	return scanCreator(r.pool.QueryRow(ctx, query, tgUserID, username, displayName))
}

func (r *CreatorRepository) GetByID(ctx context.Context, tgUserID int64) (models.Creator, error) {
	const query = `SELECT ` + creatorColumns + ` FROM creators WHERE tg_user_id = $1`

	creator, err := scanCreator(r.pool.QueryRow(ctx, query, tgUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Creator{}, ErrCreatorNotFound
		}
		return models.Creator{}, err
	}
	return creator, nil
}

func (r *CreatorRepository) SetStrikes(ctx context.Context, tgUserID int64, strikes int) error {
	const query = `UPDATE creators SET strikes = $2, updated_at = NOW() WHERE tg_user_id = $1`
	_, err := r.pool.Exec(ctx, query, tgUserID, strikes)
	return err
}

func (r *CreatorRepository) Ban(ctx context.Context, tgUserID int64) error {
	const query = `UPDATE creators SET is_banned = TRUE, updated_at = NOW() WHERE tg_user_id = $1`
	_, err := r.pool.Exec(ctx, query, tgUserID)
	return err
}

func (r *CreatorRepository) SetCooldown(ctx context.Context, tgUserID int64, until time.Time) error {
	const query = `UPDATE creators SET cooldown_until = $2, updated_at = NOW() WHERE tg_user_id = $1`
	_, err := r.pool.Exec(ctx, query, tgUserID, until)
	return err
}

// RecalculateStats recomputes a creator's aggregate counters with a full
// scan of their posts and jobs. Not incremental on purpose: the result is
// always consistent with the current social_posts rows.
func (r *CreatorRepository) RecalculateStats(ctx context.Context, tgUserID int64) error {
	const query = `
		UPDATE creators c SET
			total_views = COALESCE(p.views, 0),
			total_engagements = COALESCE(p.engagements, 0),
			total_shares = COALESCE(p.shares, 0),
			total_videos = COALESCE(v.videos, 0),
			updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(views), 0) AS views,
			       COALESCE(SUM(likes + comments + shares), 0) AS engagements,
			       COALESCE(SUM(shares), 0) AS shares
			FROM social_posts WHERE creator_id = $1
		) p, (
			SELECT COUNT(*) AS videos
			FROM video_jobs WHERE creator_id = $1 AND status = 'ready'
		) v
		WHERE c.tg_user_id = $1
	`
	_, err := r.pool.Exec(ctx, query, tgUserID)
	return err
}

// Leaderboard returns the top creators ranked by aggregate views.
func (r *CreatorRepository) Leaderboard(ctx context.Context, limit int) ([]models.Creator, error) {
	const query = `
		SELECT ` + creatorColumns + `
		FROM creators
		WHERE total_videos > 0
		ORDER BY total_views DESC, total_engagements DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creators []models.Creator
	for rows.Next() {
		c, err := scanCreator(rows)
		if err != nil {
			return nil, err
		}
		creators = append(creators, c)
	}
	return creators, rows.Err()
}
