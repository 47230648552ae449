package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	version string
	sql     string
}

// Ordered schema migrations, applied once each at startup. The partial
// unique index in 0002 is what makes ReservePending safe under concurrent
// duplicate submissions: two racing inserts for the same (creator, prompt)
// cannot both land in pending.
var migrations = []migration{
	{
		version: "0001_base_tables",
		sql: `
CREATE TABLE IF NOT EXISTS creators (
	tg_user_id        BIGINT PRIMARY KEY,
	username          TEXT NOT NULL DEFAULT '',
	display_name      TEXT NOT NULL DEFAULT '',
	is_banned         BOOLEAN NOT NULL DEFAULT FALSE,
	cooldown_until    TIMESTAMPTZ,
	strikes           INT NOT NULL DEFAULT 0,
	total_views       BIGINT NOT NULL DEFAULT 0,
	total_videos      BIGINT NOT NULL DEFAULT 0,
	total_engagements BIGINT NOT NULL DEFAULT 0,
	total_shares      BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS video_jobs (
	id               TEXT PRIMARY KEY,
	creator_id       BIGINT NOT NULL REFERENCES creators(tg_user_id),
	prompt           TEXT NOT NULL,
	prompt_sha256    TEXT NOT NULL,
	enhanced_prompt  TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL,
	duration_seconds INT NOT NULL,
	status           TEXT NOT NULL,
	provider_job_id  TEXT,
	video_url        TEXT,
	thumbnail_url    TEXT,
	url_durable      BOOLEAN NOT NULL DEFAULT TRUE,
	caption          TEXT NOT NULL DEFAULT '',
	hashtags         TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS video_jobs_creator_created
	ON video_jobs (creator_id, created_at DESC);

CREATE TABLE IF NOT EXISTS social_posts (
	id                 TEXT PRIMARY KEY,
	job_id             TEXT NOT NULL REFERENCES video_jobs(id),
	creator_id         BIGINT NOT NULL REFERENCES creators(tg_user_id),
	platform           TEXT NOT NULL,
	post_url           TEXT NOT NULL,
	platform_post_id   TEXT NOT NULL DEFAULT '',
	views              BIGINT NOT NULL DEFAULT 0,
	likes              BIGINT NOT NULL DEFAULT 0,
	comments           BIGINT NOT NULL DEFAULT 0,
	shares             BIGINT NOT NULL DEFAULT 0,
	last_metrics_sync  TIMESTAMPTZ,
	metrics_sync_error TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT social_posts_platform_url UNIQUE (platform, post_url)
);
`,
	},
	{
		version: "0002_inflight_dedupe_index",
		sql: `
CREATE UNIQUE INDEX IF NOT EXISTS video_jobs_inflight_dedupe
	ON video_jobs (creator_id, prompt_sha256)
	WHERE status = 'pending';
`,
	},
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := make(map[string]struct{})
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("fetch applied migrations: %w", err)
	}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate applied migrations: %w", err)
	}

	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.version, err)
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.version, err)
		}
	}

	return nil
}
