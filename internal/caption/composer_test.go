package caption

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubChat struct {
	response string
	err      error
}

func (s stubChat) CompleteJSON(ctx context.Context, system, user string, temperature float64, out any) error {
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.response), out)
}

func TestComposeUsesModelAnswer(t *testing.T) {
	c := NewComposer(stubChat{response: `{"caption":"DeFi made simple","hashtags":"#ETH #DeFi"}`}, zerolog.Nop())

	got := c.Compose(context.Background(), "stablecoins explained", "defi_education")
	if got.Caption != "DeFi made simple" || got.Hashtags != "#ETH #DeFi" {
		t.Fatalf("got %+v", got)
	}
}

func TestComposeFallsBackOnError(t *testing.T) {
	c := NewComposer(stubChat{err: errors.New("model down")}, zerolog.Nop())

	got := c.Compose(context.Background(), "prompt", "cultural_fusion")
	if got.Caption == "" {
		t.Fatal("fallback caption empty")
	}
	if !strings.Contains(got.Hashtags, baseHashtags) {
		t.Fatalf("hashtags = %q, want base set", got.Hashtags)
	}
	if !strings.Contains(got.Hashtags, "#CryptoMexico") {
		t.Fatalf("hashtags = %q, want category tags", got.Hashtags)
	}
}

func TestComposeFallsBackOnEmptyCaption(t *testing.T) {
	c := NewComposer(stubChat{response: `{"caption":"","hashtags":""}`}, zerolog.Nop())

	got := c.Compose(context.Background(), "prompt", "layer2_tech")
	if got.Caption == "" {
		t.Fatal("fallback caption empty")
	}
}

func TestComposeFillsMissingHashtags(t *testing.T) {
	c := NewComposer(stubChat{response: `{"caption":"nice","hashtags":""}`}, zerolog.Nop())

	got := c.Compose(context.Background(), "prompt", "defi_education")
	if got.Caption != "nice" {
		t.Fatalf("caption = %q", got.Caption)
	}
	if got.Hashtags != baseHashtags {
		t.Fatalf("hashtags = %q, want base set", got.Hashtags)
	}
}
