package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// AllowedDurations are the only clip lengths the provider accepts, in
// seconds. Requested durations are snapped, not rejected.
var AllowedDurations = []int{4, 8, 12}

// SnapDuration picks the nearest allowed duration; an exact tie goes to
// the smaller value.
func SnapDuration(seconds int) int {
	best := AllowedDurations[0]
	bestDist := abs(seconds - best)
	for _, d := range AllowedDurations[1:] {
		dist := abs(seconds - d)
		if dist < bestDist {
			best = d
			bestDist = dist
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

const qualitySuffix = "High quality, 4K resolution, professional cinematography, engaging composition, cinematic lighting."

var categoryModifiers = map[string]string{
	"defi_education":   "Clear, friendly visuals. Easy to understand. Educational and approachable tone.",
	"product_features": "Sleek, modern UI elements. Tech-forward aesthetic.",
	"layer2_tech":      "Futuristic, cutting-edge technology visualization.",
	"multi_chain":      "Connected networks, flowing data. Interoperability theme.",
	"user_success":     "Warm, human-centered. Inspirational and authentic.",
	"cultural_fusion":  "Vibrant, colorful. Celebrate culture authentically.",
}

// EnhancePrompt appends the category's stylistic modifier and the fixed
// quality suffix. Purely textual and deterministic.
func EnhancePrompt(prompt, category string) string {
	modifier, ok := categoryModifiers[category]
	if !ok {
		modifier = "Engaging and dynamic visual storytelling."
	}
	return strings.TrimSpace(fmt.Sprintf("%s. %s %s", strings.TrimSuffix(prompt, "."), modifier, qualitySuffix))
}

// AssetRef identifies a completed asset at the provider. The content URL
// is ephemeral and only fetchable with the caller's credentials.
type AssetRef struct {
	ProviderJobID string
	ContentURL    string
}

type GenerateResult struct {
	Asset          AssetRef
	EnhancedPrompt string
	ActualDuration int
}

type videoJob struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Seconds  string `json:"seconds"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ProgressFunc receives poll updates (attempt number, reported percent).
type ProgressFunc func(attempt, progress int)

// GenerateVideo submits exactly one generation job and polls it to a
// terminal state. The submission happens once per call; the caller owns
// making sure a reservation is never resubmitted. Returns UnavailableError
// for transport/provider failures, TimeoutError when the attempt budget
// runs out, and ctx.Err() when cancelled.
func (c *Client) GenerateVideo(ctx context.Context, prompt, category string, durationSeconds int, onProgress ProgressFunc) (GenerateResult, error) {
	enhanced := EnhancePrompt(prompt, category)
	seconds := SnapDuration(durationSeconds)

	submitBody := map[string]string{
		"model":   c.cfg.VideoModel,
		"prompt":  enhanced,
		"size":    c.cfg.VideoSize,
		"seconds": strconv.Itoa(seconds),
	}

	var submitted videoJob
	if _, err := c.doJSON(ctx, http.MethodPost, "/videos", submitBody, &submitted); err != nil {
		return GenerateResult{}, &UnavailableError{Op: "submit", Err: err}
	}

	c.log.Info().
		Str("provider_job_id", submitted.ID).
		Str("status", submitted.Status).
		Int("seconds", seconds).
		Msg("video job submitted")

	job, attempts, err := c.pollUntilTerminal(ctx, submitted.ID, onProgress)
	if err != nil {
		return GenerateResult{}, err
	}

	actual := seconds
	if parsed, perr := strconv.Atoi(job.Seconds); perr == nil && parsed > 0 {
		actual = parsed
	}

	c.log.Info().
		Str("provider_job_id", submitted.ID).
		Int("polls", attempts).
		Msg("video job completed")

	return GenerateResult{
		Asset: AssetRef{
			ProviderJobID: submitted.ID,
			ContentURL:    fmt.Sprintf("%s/videos/%s/content", c.cfg.BaseURL, submitted.ID),
		},
		EnhancedPrompt: enhanced,
		ActualDuration: actual,
	}, nil
}

// pollUntilTerminal checks job status on a fixed interval up to the
// attempt budget. A transport error on a single poll counts toward the
// budget and is retried; only the provider saying "failed" or the budget
// running out ends the loop early.
func (c *Client) pollUntilTerminal(ctx context.Context, providerJobID string, onProgress ProgressFunc) (videoJob, int, error) {
	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return videoJob{}, attempt - 1, ctx.Err()
		case <-timer.C:
		}
		timer.Reset(c.cfg.PollInterval)

		var job videoJob
		if _, err := c.doJSON(ctx, http.MethodGet, "/videos/"+providerJobID, nil, &job); err != nil {
			if ctx.Err() != nil {
				return videoJob{}, attempt, ctx.Err()
			}
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("status poll failed, retrying")
			continue
		}

		if onProgress != nil {
			onProgress(attempt, job.Progress)
		}

		switch job.Status {
		case "completed":
			return job, attempt, nil
		case "failed":
			msg := "unknown provider error"
			if job.Error != nil && job.Error.Message != "" {
				msg = job.Error.Message
			}
			return videoJob{}, attempt, &UnavailableError{Op: "generate", Err: fmt.Errorf("%s", msg)}
		}
	}

	return videoJob{}, c.cfg.MaxPollAttempts, &TimeoutError{Attempts: c.cfg.MaxPollAttempts}
}

// DownloadAsset streams the completed asset bytes over the authenticated
// channel. The caller must close the reader.
func (c *Client) DownloadAsset(ctx context.Context, providerJobID string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/videos/%s/content", c.cfg.BaseURL, providerJobID), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	// Asset downloads run minutes-scale payloads; bypass the short
	// per-call timeout and rely on ctx for cancellation.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("download asset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("download asset: status %d", resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}
