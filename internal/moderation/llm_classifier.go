package moderation

import (
	"context"
	"fmt"
)

// ChatCompleter is the one chat-completion call the classifier needs;
// implemented by the openai client.
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, system, user string, temperature float64, out any) error
}

const classifierSystemPrompt = `You are a content moderator for an Ethereum creator campaign.

APPROVED CATEGORIES:
1. product_features: swaps, gasless transactions, smart wallets, staking, NFTs
2. defi_education: stablecoins, how swaps work, DEX basics, blockchain education
3. layer2_tech: rollups, MEV protection, fair ordering, efficient markets
4. multi_chain: cross-chain swaps, interoperability, bridges
5. user_success: first transaction stories, financial inclusion, accessibility
6. cultural_fusion: cultural perspectives and creative interpretations

BANNED:
- Price predictions ("moon", "100x", financial advice)
- Competitor promotion
- Gambling/casino themes
- "Get rich quick" promises
- Political or controversial content

Analyze the prompt and respond ONLY with valid JSON:
{"approved": true/false, "category": "category_name", "reason": "explanation", "confidence": 0.0-1.0, "suggestions": ["improvements if rejected"]}

Be strict but constructive.`

// LLMClassifier implements Classifier on top of a chat completion.
type LLMClassifier struct {
	chat ChatCompleter
}

func NewLLMClassifier(chat ChatCompleter) *LLMClassifier {
	return &LLMClassifier{chat: chat}
}

func (c *LLMClassifier) Classify(ctx context.Context, prompt, categoryHint string) (Verdict, error) {
	user := fmt.Sprintf("Validate this video prompt:\n\n%q\n\nSuggested category: %s", prompt, categoryHint)

	var verdict Verdict
	if err := c.chat.CompleteJSON(ctx, classifierSystemPrompt, user, 0.3, &verdict); err != nil {
		return Verdict{}, fmt.Errorf("classify prompt: %w", err)
	}
	return verdict, nil
}
