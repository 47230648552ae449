package social

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

var ErrUnsupportedURL = errors.New("unsupported post url")

var (
	tiktokIDRe    = regexp.MustCompile(`/video/(\d+)`)
	instagramIDRe = regexp.MustCompile(`/(?:reel|reels|p)/([A-Za-z0-9_-]+)`)
	xIDRe         = regexp.MustCompile(`/status/(\d+)`)
	youtubeIDRe   = regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{6,})`)
)

// DetectPlatform maps a post URL to the platform it was published on.
func DetectPlatform(rawURL string) models.Platform {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return models.PlatformUnknown
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	switch {
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		return models.PlatformTikTok
	case host == "instagram.com" || strings.HasSuffix(host, ".instagram.com"):
		return models.PlatformInstagram
	case host == "x.com" || host == "twitter.com":
		return models.PlatformX
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") || host == "youtu.be":
		return models.PlatformYouTube
	default:
		return models.PlatformUnknown
	}
}

// ExtractPostID pulls the platform's native post identifier out of the
// URL. Returns empty when the URL shape is not recognized; the post is
// still accepted, the id is only a nicety for metrics lookups.
func ExtractPostID(platform models.Platform, rawURL string) string {
	switch platform {
	case models.PlatformTikTok:
		return firstGroup(tiktokIDRe, rawURL)
	case models.PlatformInstagram:
		return firstGroup(instagramIDRe, rawURL)
	case models.PlatformX:
		return firstGroup(xIDRe, rawURL)
	case models.PlatformYouTube:
		if id := firstGroup(youtubeIDRe, rawURL); id != "" {
			return id
		}
		if u, err := url.Parse(rawURL); err == nil {
			if v := u.Query().Get("v"); v != "" {
				return v
			}
			if u.Hostname() == "youtu.be" {
				return strings.Trim(u.Path, "/")
			}
		}
		return ""
	default:
		return ""
	}
}

// Parse validates and normalizes a claimed post URL in one step.
func Parse(rawURL string) (models.Platform, string, error) {
	platform := DetectPlatform(rawURL)
	if platform == models.PlatformUnknown {
		return models.PlatformUnknown, "", ErrUnsupportedURL
	}
	return platform, ExtractPostID(platform, rawURL), nil
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
