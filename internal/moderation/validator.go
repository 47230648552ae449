package moderation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Verdict is the structured answer of the semantic classifier.
type Verdict struct {
	Approved    bool     `json:"approved"`
	Category    string   `json:"category"`
	Reason      string   `json:"reason"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
}

// Classifier delegates nuanced moderation to an external model. The
// keyword-inferred category is passed as a hint.
type Classifier interface {
	Classify(ctx context.Context, prompt, categoryHint string) (Verdict, error)
}

type ValidationResult struct {
	Approved    bool
	Category    string
	Reason      string
	Confidence  float64
	Suggestions []string
}

// Validator combines a deterministic banned-phrase scan and keyword
// category scoring with a delegated semantic classifier. The classifier is
// authoritative when it answers; when it fails the validator fails open
// with the keyword category, trading strictness for user experience.
type Validator struct {
	classifier Classifier
	log        zerolog.Logger
}

func NewValidator(classifier Classifier, log zerolog.Logger) *Validator {
	return &Validator{classifier: classifier, log: log}
}

func (v *Validator) Validate(ctx context.Context, prompt string) (ValidationResult, error) {
	lower := strings.ToLower(prompt)

	// Banned phrases short-circuit before any external call.
	for _, phrase := range bannedPhrases {
		if strings.Contains(lower, phrase) {
			return ValidationResult{
				Approved:    false,
				Reason:      fmt.Sprintf("contains prohibited content: %q", phrase),
				Confidence:  1.0,
				Suggestions: rejectionSuggestions,
			}, nil
		}
	}

	hint := DetectCategory(lower)

	verdict, err := v.classifier.Classify(ctx, prompt, hint)
	if err != nil {
		v.log.Warn().Err(err).Msg("semantic classifier unavailable, approving on keyword result")
		return ValidationResult{
			Approved:   true,
			Category:   hint,
			Reason:     "approved on keyword validation (classifier unavailable)",
			Confidence: 0.6,
		}, nil
	}

	category := verdict.Category
	if category == "" {
		category = hint
	}
	if !verdict.Approved {
		suggestions := verdict.Suggestions
		if len(suggestions) == 0 {
			suggestions = rejectionSuggestions
		}
		return ValidationResult{
			Approved:    false,
			Category:    category,
			Reason:      verdict.Reason,
			Confidence:  verdict.Confidence,
			Suggestions: suggestions,
		}, nil
	}

	return ValidationResult{
		Approved:    true,
		Category:    category,
		Reason:      "content meets campaign guidelines",
		Confidence:  verdict.Confidence,
		Suggestions: verdict.Suggestions,
	}, nil
}

// DetectCategory scores the lowercased prompt against each category's
// keyword set and returns the highest-scoring category. Zero hits or a tie
// for the top score fall back to DefaultCategory.
func DetectCategory(promptLower string) string {
	best := DefaultCategory
	bestScore := 0
	tied := false

	names := make([]string, 0, len(categoryKeywords))
	for name := range categoryKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := 0
		for _, kw := range categoryKeywords[name] {
			if strings.Contains(promptLower, kw) {
				score++
			}
		}
		switch {
		case score > bestScore:
			best = name
			bestScore = score
			tied = false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return DefaultCategory
	}
	return best
}
