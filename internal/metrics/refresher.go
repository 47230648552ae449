package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/social"
)

// PostLedger is the slice of the post repository the refresher writes to.
type PostLedger interface {
	ListForRefresh(ctx context.Context, limit int) ([]models.SocialPost, error)
	GetByID(ctx context.Context, postID string) (models.SocialPost, error)
	UpdateMetrics(ctx context.Context, postID string, m models.PostMetrics) error
	RecordSyncError(ctx context.Context, postID string, syncErr string) error
}

type CreatorStats interface {
	RecalculateStats(ctx context.Context, tgUserID int64) error
}

// Summary is the result of one refresh sweep.
type Summary struct {
	Total   int
	Updated int
	Failed  int
}

// Refresher walks posts oldest-sync-first, scrapes fresh counters, and
// rolls updated numbers up into creator aggregates. The limiter keeps the
// sweep polite toward the platforms; the original cadence was one fetch
// every two seconds.
type Refresher struct {
	posts    PostLedger
	creators CreatorStats
	scraper  social.MetricsScraper
	limiter  *rate.Limiter
	batch    int
	log      zerolog.Logger
}

func NewRefresher(posts PostLedger, creators CreatorStats, scraper social.MetricsScraper, log zerolog.Logger) *Refresher {
	return &Refresher{
		posts:    posts,
		creators: creators,
		scraper:  scraper,
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 1),
		batch:    200,
		log:      log,
	}
}

// RefreshAll runs one sweep over the stalest posts. Per-post failures are
// recorded on the row and never abort the sweep; only context cancellation
// stops early.
func (r *Refresher) RefreshAll(ctx context.Context) (Summary, error) {
	posts, err := r.posts.ListForRefresh(ctx, r.batch)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(posts)}
	for _, post := range posts {
		if err := r.limiter.Wait(ctx); err != nil {
			return summary, err
		}
		if err := r.refreshOne(ctx, post); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			continue
		}
		summary.Updated++
	}

	r.log.Info().
		Int("total", summary.Total).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Msg("metrics sweep finished")
	return summary, nil
}

// RefreshPost updates a single post by id, for targeted retries.
func (r *Refresher) RefreshPost(ctx context.Context, postID string) error {
	post, err := r.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	return r.refreshOne(ctx, post)
}

func (r *Refresher) refreshOne(ctx context.Context, post models.SocialPost) error {
	scraped, err := r.scraper.Scrape(ctx, post)
	if err != nil {
		r.log.Warn().Err(err).Str("post_id", post.ID).Str("platform", string(post.Platform)).
			Msg("metrics scrape failed")
		if recErr := r.posts.RecordSyncError(ctx, post.ID, err.Error()); recErr != nil {
			r.log.Error().Err(recErr).Str("post_id", post.ID).Msg("could not record sync error")
		}
		return err
	}

	if err := r.posts.UpdateMetrics(ctx, post.ID, scraped); err != nil {
		r.log.Error().Err(err).Str("post_id", post.ID).Msg("metrics update failed")
		return err
	}

	if err := r.creators.RecalculateStats(ctx, post.CreatorID); err != nil {
		r.log.Error().Err(err).Int64("creator_id", post.CreatorID).Msg("creator stats recalculation failed")
		return err
	}

	r.log.Debug().Str("post_id", post.ID).Int64("views", scraped.Views).Msg("post metrics refreshed")
	return nil
}
