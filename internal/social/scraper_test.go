package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

const tiktokPage = `<html><head>
<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">
{"__DEFAULT_SCOPE__":{"webapp.video-detail":{"itemInfo":{"itemStruct":{"id":"7106594312292453675","stats":{"playCount":120345,"diggCount":4100,"commentCount":230,"shareCount":57}}}}}}
</script></head><body></body></html>`

const instagramPage = `<html><head>
<script type="application/ld+json">
{"@type":"VideoObject","interactionStatistic":[
{"interactionType":"https://schema.org/WatchAction","userInteractionCount":9800},
{"interactionType":"https://schema.org/LikeAction","userInteractionCount":640},
{"interactionType":"https://schema.org/CommentAction","userInteractionCount":41}]}
</script></head><body></body></html>`

func newScraper() *HTTPScraper {
	return NewHTTPScraper(5*time.Second, zerolog.Nop())
}

func TestScrapeTikTokReadsHydrationBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tiktokPage)
	}))
	defer srv.Close()

	metrics, err := newScraper().Scrape(context.Background(), models.SocialPost{
		Platform: models.PlatformTikTok,
		PostURL:  srv.URL + "/@alice/video/7106594312292453675",
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if metrics.Views != 120345 || metrics.Likes != 4100 || metrics.Comments != 230 || metrics.Shares != 57 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if metrics.PostID != "7106594312292453675" {
		t.Fatalf("post id = %q", metrics.PostID)
	}
}

func TestScrapeInstagramReadsInteractionStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, instagramPage)
	}))
	defer srv.Close()

	metrics, err := newScraper().Scrape(context.Background(), models.SocialPost{
		Platform: models.PlatformInstagram,
		PostURL:  srv.URL + "/reel/C8abcDEF123/",
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if metrics.Views != 9800 || metrics.Likes != 640 || metrics.Comments != 41 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if metrics.Shares != 0 {
		t.Fatal("instagram shares should stay zero")
	}
}

func TestScrapeMissingDataNeedsManualEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nothing here</body></html>")
	}))
	defer srv.Close()

	_, err := newScraper().Scrape(context.Background(), models.SocialPost{
		Platform: models.PlatformTikTok,
		PostURL:  srv.URL + "/@alice/video/1",
	})
	if !errors.Is(err, ErrManualEntry) {
		t.Fatalf("err = %v, want ErrManualEntry", err)
	}
}

func TestScrapeXNeedsManualEntry(t *testing.T) {
	_, err := newScraper().Scrape(context.Background(), models.SocialPost{
		Platform: models.PlatformX,
		PostURL:  "https://x.com/alice/status/1",
	})
	if !errors.Is(err, ErrManualEntry) {
		t.Fatalf("err = %v, want ErrManualEntry", err)
	}
}
