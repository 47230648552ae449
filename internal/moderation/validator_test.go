package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type stubClassifier struct {
	verdict Verdict
	err     error
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, prompt, categoryHint string) (Verdict, error) {
	s.calls++
	if s.err != nil {
		return Verdict{}, s.err
	}
	return s.verdict, nil
}

func TestValidateBannedPhraseShortCircuits(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("should never be called")}
	v := NewValidator(classifier, zerolog.Nop())

	res, err := v.Validate(context.Background(), "Ethereum to the MOON, guaranteed profit 100x")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Approved {
		t.Fatal("banned phrase must be rejected")
	}
	if res.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0 for deterministic rejection", res.Confidence)
	}
	if classifier.calls != 0 {
		t.Fatal("classifier consulted despite banned phrase")
	}
	if len(res.Suggestions) == 0 {
		t.Fatal("rejection must carry suggestions")
	}
}

func TestValidateClassifierIsAuthoritative(t *testing.T) {
	classifier := &stubClassifier{verdict: Verdict{
		Approved:   false,
		Category:   CategoryDeFiEducation,
		Reason:     "off topic",
		Confidence: 0.85,
	}}
	v := NewValidator(classifier, zerolog.Nop())

	res, err := v.Validate(context.Background(), "a video about my cat")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Approved {
		t.Fatal("classifier rejection must stand")
	}
	if res.Reason != "off topic" || res.Confidence != 0.85 {
		t.Fatalf("result = %+v", res)
	}
}

func TestValidateFailsOpenOnClassifierError(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("model down")}
	v := NewValidator(classifier, zerolog.Nop())

	res, err := v.Validate(context.Background(), "how stablecoins keep remittances cheap")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Approved {
		t.Fatal("classifier failure must fail open")
	}
	if res.Confidence > 0.6 {
		t.Fatalf("confidence = %v, fail-open must not exceed 0.6", res.Confidence)
	}
	if res.Category != CategoryDeFiEducation {
		t.Fatalf("category = %q, want keyword hint", res.Category)
	}
}

func TestValidateEmptyClassifierCategoryFallsBackToHint(t *testing.T) {
	classifier := &stubClassifier{verdict: Verdict{Approved: true, Confidence: 0.9}}
	v := NewValidator(classifier, zerolog.Nop())

	res, err := v.Validate(context.Background(), "tacos y mariachi celebrando la cultura mexicana onchain")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Category != CategoryCulturalFusion {
		t.Fatalf("category = %q, want cultural fusion from keywords", res.Category)
	}
}

func TestDetectCategory(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"gasless swap from a smart wallet", CategoryProductFeatures},
		{"what is defi and how stablecoins work", CategoryDeFiEducation},
		{"l2 rollup with fair ordering", CategoryLayer2Tech},
		{"bridging arbitrum and polygon cross-chain", CategoryMultiChain},
		{"my story of my first swap and financial inclusion", CategoryUserSuccess},
		{"mercado de tacos en mexico", CategoryCulturalFusion},
		{"a completely unrelated prompt", DefaultCategory},
	}
	for _, tc := range cases {
		if got := DetectCategory(tc.prompt); got != tc.want {
			t.Errorf("DetectCategory(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}

func TestDetectCategoryTieFallsBack(t *testing.T) {
	// One keyword from two different categories each.
	if got := DetectCategory("swap on a rollup"); got != DefaultCategory {
		t.Fatalf("tie = %q, want default", got)
	}
}
