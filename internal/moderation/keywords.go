package moderation

// Category identifiers must match the values stored on video_jobs rows.
const (
	CategoryDeFiEducation   = "defi_education"
	CategoryProductFeatures = "product_features"
	CategoryLayer2Tech      = "layer2_tech"
	CategoryMultiChain      = "multi_chain"
	CategoryUserSuccess     = "user_success"
	CategoryCulturalFusion  = "cultural_fusion"
)

// DefaultCategory is used on a scoring tie or when no keyword matches.
const DefaultCategory = CategoryDeFiEducation

var categoryKeywords = map[string][]string{
	CategoryProductFeatures: {"swap", "gasless", "wallet", "limit order", "bridge", "smart wallet", "staking", "nft"},
	CategoryDeFiEducation:   {"defi", "stablecoin", "dex", "learn", "explain", "how", "what is"},
	CategoryLayer2Tech:      {"layer 2", "l2", "rollup", "mev", "fair ordering", "scroll", "efficient"},
	CategoryMultiChain:      {"cross-chain", "interoperability", "arbitrum", "polygon", "base", "optimism"},
	CategoryUserSuccess:     {"first swap", "my story", "journey", "accessibility", "inclusion"},
	CategoryCulturalFusion:  {"mexico", "mexican", "culture", "mercado", "taco", "mariachi", "folk", "tradition"},
}

var bannedPhrases = []string{
	// price speculation
	"moon", "100x", "1000x", "to the moon", "lambo", "when moon",
	// gambling
	"casino", "roulette", "betting", "gamble", "lottery",
	// get rich quick
	"get rich", "easy money", "guaranteed profit", "passive income",
	// competitors
	"pancakeswap", "sushiswap", "1inch", "curve", "balancer",
	// political
	"election", "vote for", "politics", "politician",
	// pump schemes
	"pump", "dump", "rug pull", "scam token",
}

var rejectionSuggestions = []string{
	"Focus on DeFi education or ecosystem features",
	"Avoid price predictions and gambling themes",
	"Highlight user stories or cultural elements",
}

// CategoryNames lists the approved categories in display order.
func CategoryNames() []string {
	return []string{
		CategoryProductFeatures,
		CategoryDeFiEducation,
		CategoryLayer2Tech,
		CategoryMultiChain,
		CategoryUserSuccess,
		CategoryCulturalFusion,
	}
}
