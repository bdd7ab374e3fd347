package moderation

import "github.com/myao0007/shetalks/internal/model"

// PolicyVersion names the keyword tables, weights and thresholds below.
// Bump it whenever any of them change.
const PolicyVersion = "2025-02"

// Score weights per finding.
const (
	WeightHateSpeech        = 3
	WeightSelfHarm          = 4
	WeightInappropriate     = 2
	WeightSpam              = 1
	WeightNegativeSentiment = 1
)

// Score thresholds. A score at or above HighRiskThreshold is high risk; at or
// above MediumRiskThreshold is medium; anything lower is low.
const (
	HighRiskThreshold   = 4
	MediumRiskThreshold = 2
)

// SpamUniqueRatio is the distinct/total token ratio under which a text is
// treated as repetitive spam.
const SpamUniqueRatio = 0.3

// Keyword tables. Entries are lower case and matched as substrings of the
// lower-cased, whitespace-normalized text, so an entry must not occur inside
// common unrelated words ("loser" in "closer", "joy" in "enjoy").
var (
	HateSpeechKeywords = []string{
		"hate you",
		"idiot",
		"stupid",
		"moron",
		"you loser",
		"shut up",
		"pathetic",
		"go away and rot",
	}

	SelfHarmKeywords = []string{
		"kill myself",
		"suicide",
		"suicidal",
		"end my life",
		"want to die",
		"self harm",
		"self-harm",
		"cut myself",
		"hurt myself",
		"no reason to live",
	}

	InappropriateKeywords = []string{
		"porn",
		"nude",
		"naked",
		"xxx",
		"sexting",
		"explicit photo",
		"onlyfans",
	}

	SpamPhrases = []string{
		"buy now",
		"click here",
	}

	PositiveWords = []string{
		"happy",
		"love",
		"grateful",
		"thankful",
		"hopeful",
		"great",
		"wonderful",
		"joyful",
		"proud",
		"excited",
		"better",
	}

	NegativeWords = []string{
		"sad",
		"angry",
		"upset",
		"lonely",
		"depressed",
		"anxious",
		"hurt",
		"terrible",
		"awful",
		"crying",
		"cried",
		"exhausted",
	}
)

// Suggestions shown for a medium-risk decision, one per finding.
const (
	SuggestionHateSpeech        = "Please remove hostile or insulting language."
	SuggestionSelfHarm          = "If you are struggling, please reach out to a support line; consider rephrasing references to self-harm."
	SuggestionInappropriate     = "Please remove sexual or explicit content."
	SuggestionSpam              = "Please avoid repetitive or promotional content."
	SuggestionNegativeSentiment = "Consider framing your post in a more constructive way."
)

// Reasons attached to each decision.
var reasons = map[model.RiskLevel]string{
	model.RiskHigh:   "Content violates community guidelines",
	model.RiskMedium: "Content may need revision before it can be shared",
	model.RiskLow:    "Content meets community guidelines",
}
