package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

type memPosts struct {
	posts      []models.SocialPost
	metrics    map[string]models.PostMetrics
	syncErrors map[string]string
}

func newMemPosts(posts ...models.SocialPost) *memPosts {
	return &memPosts{
		posts:      posts,
		metrics:    make(map[string]models.PostMetrics),
		syncErrors: make(map[string]string),
	}
}

func (m *memPosts) ListForRefresh(ctx context.Context, limit int) ([]models.SocialPost, error) {
	return m.posts, nil
}

func (m *memPosts) GetByID(ctx context.Context, postID string) (models.SocialPost, error) {
	for _, p := range m.posts {
		if p.ID == postID {
			return p, nil
		}
	}
	return models.SocialPost{}, errors.New("not found")
}

func (m *memPosts) UpdateMetrics(ctx context.Context, postID string, pm models.PostMetrics) error {
	m.metrics[postID] = pm
	return nil
}

func (m *memPosts) RecordSyncError(ctx context.Context, postID string, syncErr string) error {
	m.syncErrors[postID] = syncErr
	return nil
}

type recalcRecorder struct {
	calls []int64
}

func (r *recalcRecorder) RecalculateStats(ctx context.Context, tgUserID int64) error {
	r.calls = append(r.calls, tgUserID)
	return nil
}

type stubScraper struct {
	byURL map[string]models.PostMetrics
	errBy map[string]error
}

func (s stubScraper) Scrape(ctx context.Context, post models.SocialPost) (models.PostMetrics, error) {
	if err, ok := s.errBy[post.PostURL]; ok {
		return models.PostMetrics{}, err
	}
	return s.byURL[post.PostURL], nil
}

func fastRefresher(posts PostLedger, creators CreatorStats, scraper stubScraper) *Refresher {
	r := NewRefresher(posts, creators, scraper, zerolog.Nop())
	r.limiter.SetLimit(1e6)
	return r
}

func TestRefreshAllUpdatesAndRecalculates(t *testing.T) {
	posts := newMemPosts(
		models.SocialPost{ID: "p1", CreatorID: 1, Platform: models.PlatformTikTok, PostURL: "u1"},
		models.SocialPost{ID: "p2", CreatorID: 2, Platform: models.PlatformTikTok, PostURL: "u2"},
	)
	recalc := &recalcRecorder{}
	scraper := stubScraper{byURL: map[string]models.PostMetrics{
		"u1": {Views: 100, Likes: 10},
		"u2": {Views: 200, Likes: 20},
	}}

	summary, err := fastRefresher(posts, recalc, scraper).RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if summary.Total != 2 || summary.Updated != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if posts.metrics["p1"].Views != 100 || posts.metrics["p2"].Views != 200 {
		t.Fatalf("metrics not stored: %+v", posts.metrics)
	}
	if len(recalc.calls) != 2 {
		t.Fatalf("recalc calls = %v, want both creators", recalc.calls)
	}
}

func TestRefreshAllRecordsFailuresAndContinues(t *testing.T) {
	posts := newMemPosts(
		models.SocialPost{ID: "p1", CreatorID: 1, PostURL: "bad", Platform: models.PlatformInstagram},
		models.SocialPost{ID: "p2", CreatorID: 2, PostURL: "good", Platform: models.PlatformTikTok},
	)
	recalc := &recalcRecorder{}
	scraper := stubScraper{
		byURL: map[string]models.PostMetrics{"good": {Views: 5}},
		errBy: map[string]error{"bad": errors.New("blocked by platform")},
	}

	summary, err := fastRefresher(posts, recalc, scraper).RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if summary.Updated != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if posts.syncErrors["p1"] != "blocked by platform" {
		t.Fatalf("sync error not recorded: %+v", posts.syncErrors)
	}
	if posts.metrics["p2"].Views != 5 {
		t.Fatal("surviving post not updated")
	}
	if len(recalc.calls) != 1 || recalc.calls[0] != 2 {
		t.Fatalf("recalc calls = %v", recalc.calls)
	}
}

func TestRefreshAllStopsOnCancel(t *testing.T) {
	posts := newMemPosts(
		models.SocialPost{ID: "p1", CreatorID: 1, PostURL: "u1"},
		models.SocialPost{ID: "p2", CreatorID: 2, PostURL: "u2"},
	)
	r := NewRefresher(posts, &recalcRecorder{}, stubScraper{byURL: map[string]models.PostMetrics{}}, zerolog.Nop())
	r.limiter.SetLimit(1) // 1/s, second post has to wait

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := r.RefreshAll(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}
