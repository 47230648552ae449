package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSnapDuration(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{1, 4},
		{4, 4},
		{5, 4},
		{6, 4}, // tie between 4 and 8 goes down
		{7, 8},
		{8, 8},
		{10, 8}, // tie between 8 and 12 goes down
		{11, 12},
		{12, 12},
		{30, 12},
		{0, 4},
		{-3, 4},
	}
	for _, tc := range cases {
		if got := SnapDuration(tc.in); got != tc.want {
			t.Errorf("SnapDuration(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestEnhancePromptAddsModifierAndSuffix(t *testing.T) {
	out := EnhancePrompt("a taco stand accepting ETH", "cultural_fusion")
	if !strings.HasPrefix(out, "a taco stand accepting ETH. ") {
		t.Fatalf("prompt not preserved: %q", out)
	}
	if !strings.Contains(out, categoryModifiers["cultural_fusion"]) {
		t.Fatal("category modifier missing")
	}
	if !strings.HasSuffix(out, qualitySuffix) {
		t.Fatal("quality suffix missing")
	}

	// Unknown category still gets the generic modifier and suffix.
	generic := EnhancePrompt("anything", "nope")
	if !strings.HasSuffix(generic, qualitySuffix) {
		t.Fatal("quality suffix missing for unknown category")
	}
}

type fakeProvider struct {
	t *testing.T

	submitStatus int
	pollStatuses []string // consumed one per status poll; last repeats
	pollHTTPErrs int      // 500s served before real statuses

	submits int32
	polls   int32
}

func (p *fakeProvider) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			atomic.AddInt32(&p.submits, 1)
			if p.submitStatus != 0 {
				w.WriteHeader(p.submitStatus)
				fmt.Fprint(w, `{"error":{"message":"nope"}}`)
				return
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				p.t.Errorf("bad submit body: %v", err)
			}
			if body["seconds"] == "" || body["model"] == "" {
				p.t.Errorf("submit body missing fields: %v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "vj_1", "status": "queued"})

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/videos/"):
			n := int(atomic.AddInt32(&p.polls, 1))
			if n <= p.pollHTTPErrs {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			idx := n - p.pollHTTPErrs - 1
			if idx >= len(p.pollStatuses) {
				idx = len(p.pollStatuses) - 1
			}
			status := p.pollStatuses[idx]
			resp := map[string]any{"id": "vj_1", "status": status, "progress": n * 10, "seconds": "8"}
			if status == "failed" {
				resp["error"] = map[string]string{"message": "content policy"}
			}
			json.NewEncoder(w).Encode(resp)

		default:
			p.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newPollClient(baseURL string, maxAttempts int) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		VideoModel:      "sora-2",
		VideoSize:       "720x1280",
		PollInterval:    time.Millisecond,
		MaxPollAttempts: maxAttempts,
	}, zerolog.Nop())
}

func TestGenerateVideoCompletesAfterExactPolls(t *testing.T) {
	provider := &fakeProvider{t: t, pollStatuses: []string{"in_progress", "in_progress", "completed"}}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	var progressCalls int
	result, err := newPollClient(srv.URL, 60).GenerateVideo(context.Background(), "prompt", "defi_education", 10, func(attempt, progress int) {
		progressCalls++
	})
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if provider.submits != 1 {
		t.Fatalf("submissions = %d, want exactly 1", provider.submits)
	}
	if provider.polls != 3 {
		t.Fatalf("polls = %d, want success on the third poll", provider.polls)
	}
	if progressCalls != 3 {
		t.Fatalf("progress callbacks = %d, want one per poll", progressCalls)
	}
	if result.Asset.ProviderJobID != "vj_1" {
		t.Fatalf("provider job id = %q", result.Asset.ProviderJobID)
	}
	if result.ActualDuration != 8 {
		t.Fatalf("actual duration = %d, want provider-reported 8", result.ActualDuration)
	}
	if !strings.Contains(result.Asset.ContentURL, "/videos/vj_1/content") {
		t.Fatalf("content url = %q", result.Asset.ContentURL)
	}
}

func TestGenerateVideoTimesOutAfterBudget(t *testing.T) {
	provider := &fakeProvider{t: t, pollStatuses: []string{"in_progress"}}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	_, err := newPollClient(srv.URL, 3).GenerateVideo(context.Background(), "prompt", "defi_education", 8, nil)
	if !IsTimeout(err) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
	if provider.polls != 3 {
		t.Fatalf("polls = %d, want the full budget of 3", provider.polls)
	}
	if !strings.Contains(err.Error(), "3") {
		t.Fatalf("timeout error should carry attempts: %v", err)
	}
}

func TestGenerateVideoProviderFailureIsUnavailable(t *testing.T) {
	provider := &fakeProvider{t: t, pollStatuses: []string{"in_progress", "failed"}}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	_, err := newPollClient(srv.URL, 60).GenerateVideo(context.Background(), "prompt", "defi_education", 8, nil)
	if !IsUnavailable(err) {
		t.Fatalf("err = %v, want UnavailableError", err)
	}
	if IsTimeout(err) {
		t.Fatal("provider failure must not look like a timeout")
	}
}

func TestGenerateVideoSubmitFailureIsUnavailable(t *testing.T) {
	provider := &fakeProvider{t: t, submitStatus: http.StatusServiceUnavailable}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	_, err := newPollClient(srv.URL, 60).GenerateVideo(context.Background(), "prompt", "defi_education", 8, nil)
	if !IsUnavailable(err) {
		t.Fatalf("err = %v, want UnavailableError", err)
	}
	if provider.polls != 0 {
		t.Fatal("no polls after a failed submission")
	}
}

func TestGenerateVideoRetriesTransportErrorWithinBudget(t *testing.T) {
	provider := &fakeProvider{t: t, pollHTTPErrs: 2, pollStatuses: []string{"completed"}}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	_, err := newPollClient(srv.URL, 60).GenerateVideo(context.Background(), "prompt", "defi_education", 8, nil)
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if provider.polls != 3 {
		t.Fatalf("polls = %d, want 2 failed + 1 successful", provider.polls)
	}
}

func TestGenerateVideoTransportErrorsConsumeBudget(t *testing.T) {
	provider := &fakeProvider{t: t, pollHTTPErrs: 100, pollStatuses: []string{"completed"}}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	_, err := newPollClient(srv.URL, 4).GenerateVideo(context.Background(), "prompt", "defi_education", 8, nil)
	if !IsTimeout(err) {
		t.Fatalf("err = %v, want timeout once transport errors exhaust the budget", err)
	}
}

func TestGenerateVideoHonorsCancellation(t *testing.T) {
	provider := &fakeProvider{t: t, pollStatuses: []string{"in_progress"}}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	client := NewClient(Config{
		APIKey:          "k",
		BaseURL:         srv.URL,
		PollInterval:    50 * time.Millisecond,
		MaxPollAttempts: 1000,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_, err := client.GenerateVideo(ctx, "prompt", "defi_education", 8, nil)
	if err == nil || !strings.Contains(err.Error(), "context deadline") {
		t.Fatalf("err = %v, want context deadline", err)
	}
}

func TestDownloadAssetAuthenticates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/videos/vj_9/content" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	client := newPollClient(srv.URL, 1)
	body, _, err := client.DownloadAsset(context.Background(), "vj_9")
	if err != nil {
		t.Fatalf("DownloadAsset: %v", err)
	}
	defer body.Close()

	buf := make([]byte, 32)
	n, _ := body.Read(buf)
	if string(buf[:n]) != "video-bytes" {
		t.Fatalf("payload = %q", buf[:n])
	}
}
