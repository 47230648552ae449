package caption

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ChatCompleter is the single delegated text-generation call; implemented
// by the openai client.
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, system, user string, temperature float64, out any) error
}

type Caption struct {
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
}

const composerSystemPrompt = `Generate an engaging caption and hashtags for a short DeFi video.

Keep it:
- Short (2-3 sentences max)
- Engaging and exciting
- Include relevant hashtags

Respond ONLY with valid JSON:
{"caption": "engaging caption here", "hashtags": "#Ethereum #DeFi #Web3"}`

const baseHashtags = "#Ethereum #ETHCreators #DeFi #Web3"

var categoryHashtags = map[string]string{
	"cultural_fusion":  " #CryptoMexico #LatinCrypto",
	"layer2_tech":      " #Layer2 #Web3Tech",
	"product_features": " #GaslessSwaps #SmartWallets",
}

// Composer produces a caption and hashtag set for a finished video. It
// never fails the job: any error from the model falls back to a
// deterministic caption and the base hashtag set.
type Composer struct {
	chat ChatCompleter
	log  zerolog.Logger
}

func NewComposer(chat ChatCompleter, log zerolog.Logger) *Composer {
	return &Composer{chat: chat, log: log}
}

func (c *Composer) Compose(ctx context.Context, prompt, category string) Caption {
	user := fmt.Sprintf("Create a caption for: %s (Category: %s)", prompt, category)

	var result Caption
	if err := c.chat.CompleteJSON(ctx, composerSystemPrompt, user, 0.7, &result); err != nil {
		c.log.Warn().Err(err).Msg("caption generation failed, using fallback")
		return Fallback(category)
	}
	if result.Caption == "" {
		return Fallback(category)
	}
	if result.Hashtags == "" {
		result.Hashtags = Hashtags(category)
	}
	return result
}

// Fallback is the deterministic caption used when the model is
// unavailable.
func Fallback(category string) Caption {
	return Caption{
		Caption:  "Check out this AI-generated video made for the ETH Creators campaign!",
		Hashtags: Hashtags(category),
	}
}

// Hashtags returns the fixed base set plus category-specific tags.
func Hashtags(category string) string {
	return baseHashtags + categoryHashtags[category]
}
