package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

// ErrManualEntry marks platforms or pages where public counters cannot be
// read; the sync error is stored and the post waits for manual numbers.
var ErrManualEntry = errors.New("metrics not publicly readable, needs manual entry")

// MetricsScraper reads public engagement counters for a post.
type MetricsScraper interface {
	Scrape(ctx context.Context, post models.SocialPost) (models.PostMetrics, error)
}

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

var (
	universalDataRe = regexp.MustCompile(`(?s)<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__"[^>]*>(.*?)</script>`)
	ldJSONRe        = regexp.MustCompile(`(?s)<script type="application/ld\+json"[^>]*>(.*?)</script>`)
)

// HTTPScraper pulls counters out of the public HTML pages. TikTok embeds a
// hydration blob with exact counts; Instagram exposes schema.org
// interaction statistics on public reels. X and YouTube counters are not
// readable without API credentials.
type HTTPScraper struct {
	http *http.Client
	log  zerolog.Logger
}

func NewHTTPScraper(timeout time.Duration, log zerolog.Logger) *HTTPScraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPScraper{
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

func (s *HTTPScraper) Scrape(ctx context.Context, post models.SocialPost) (models.PostMetrics, error) {
	switch post.Platform {
	case models.PlatformTikTok:
		return s.scrapeTikTok(ctx, post.PostURL)
	case models.PlatformInstagram:
		return s.scrapeInstagram(ctx, post.PostURL)
	case models.PlatformX, models.PlatformYouTube:
		return models.PostMetrics{}, fmt.Errorf("%s: %w", post.Platform, ErrManualEntry)
	default:
		return models.PostMetrics{}, fmt.Errorf("platform %q not supported", post.Platform)
	}
}

func (s *HTTPScraper) fetchHTML(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type tiktokHydration struct {
	DefaultScope struct {
		VideoDetail struct {
			ItemInfo struct {
				ItemStruct struct {
					ID    string `json:"id"`
					Stats struct {
						PlayCount    int64 `json:"playCount"`
						DiggCount    int64 `json:"diggCount"`
						CommentCount int64 `json:"commentCount"`
						ShareCount   int64 `json:"shareCount"`
					} `json:"stats"`
				} `json:"itemStruct"`
			} `json:"itemInfo"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

func (s *HTTPScraper) scrapeTikTok(ctx context.Context, rawURL string) (models.PostMetrics, error) {
	html, err := s.fetchHTML(ctx, rawURL)
	if err != nil {
		return models.PostMetrics{}, err
	}

	m := universalDataRe.FindStringSubmatch(html)
	if len(m) < 2 {
		return models.PostMetrics{}, fmt.Errorf("tiktok hydration data missing: %w", ErrManualEntry)
	}

	var blob tiktokHydration
	if err := json.Unmarshal([]byte(m[1]), &blob); err != nil {
		return models.PostMetrics{}, fmt.Errorf("parse tiktok hydration data: %w", err)
	}

	item := blob.DefaultScope.VideoDetail.ItemInfo.ItemStruct
	if item.ID == "" {
		return models.PostMetrics{}, fmt.Errorf("tiktok video detail missing: %w", ErrManualEntry)
	}

	return models.PostMetrics{
		Views:    item.Stats.PlayCount,
		Likes:    item.Stats.DiggCount,
		Comments: item.Stats.CommentCount,
		Shares:   item.Stats.ShareCount,
		PostID:   item.ID,
	}, nil
}

type ldInteraction struct {
	InteractionStatistic []struct {
		InteractionType      string `json:"interactionType"`
		UserInteractionCount int64  `json:"userInteractionCount"`
	} `json:"interactionStatistic"`
}

func (s *HTTPScraper) scrapeInstagram(ctx context.Context, rawURL string) (models.PostMetrics, error) {
	html, err := s.fetchHTML(ctx, rawURL)
	if err != nil {
		return models.PostMetrics{}, err
	}

	for _, m := range ldJSONRe.FindAllStringSubmatch(html, -1) {
		var data ldInteraction
		if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
			continue
		}
		if len(data.InteractionStatistic) == 0 {
			continue
		}

		var metrics models.PostMetrics
		for _, stat := range data.InteractionStatistic {
			action := stat.InteractionType[strings.LastIndex(stat.InteractionType, "/")+1:]
			switch action {
			case "WatchAction":
				metrics.Views = stat.UserInteractionCount
			case "LikeAction":
				metrics.Likes = stat.UserInteractionCount
			case "CommentAction":
				metrics.Comments = stat.UserInteractionCount
			}
		}
		// Instagram does not expose share counts.
		return metrics, nil
	}

	return models.PostMetrics{}, fmt.Errorf("instagram interaction data missing: %w", ErrManualEntry)
}
