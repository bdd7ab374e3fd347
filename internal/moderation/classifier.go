// Package moderation turns free text into a risk level and a moderation
// action using fixed keyword and ratio heuristics.
//
// Every function in this package except Moderator.Moderate is pure and safe
// for concurrent use.
package moderation

import (
	"strings"

	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
)

// Classify normalizes text, analyzes it with the keyword tables and returns
// the resulting decision. Blank text is an invalid argument.
func Classify(text string) (model.ModerationDecision, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return model.ModerationDecision{}, apperrors.NewInvalidArgument("text is required")
	}
	return Decide(Analyze(normalized)), nil
}

// Normalize trims text and collapses interior whitespace runs to one space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Analyze runs every check against already-normalized text.
func Analyze(normalized string) model.ContentAnalysis {
	lower := strings.ToLower(normalized)
	return model.ContentAnalysis{
		HateSpeech:    containsAny(lower, HateSpeechKeywords...),
		SelfHarm:      containsAny(lower, SelfHarmKeywords...),
		Inappropriate: containsAny(lower, InappropriateKeywords...),
		Spam:          isSpam(lower),
		Sentiment:     sentimentOf(lower),
	}
}

// Score sums the weights of every finding in the analysis.
func Score(a model.ContentAnalysis) int {
	score := 0
	if a.HateSpeech {
		score += WeightHateSpeech
	}
	if a.SelfHarm {
		score += WeightSelfHarm
	}
	if a.Inappropriate {
		score += WeightInappropriate
	}
	if a.Spam {
		score += WeightSpam
	}
	if a.Sentiment == model.SentimentNegative {
		score += WeightNegativeSentiment
	}
	return score
}

// RiskFor maps a score onto a risk level.
func RiskFor(score int) model.RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return model.RiskHigh
	case score >= MediumRiskThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Decide builds the moderation decision for an analysis. The action depends
// on the risk level alone; the analysis only shapes the suggestions.
func Decide(a model.ContentAnalysis) model.ModerationDecision {
	risk := RiskFor(Score(a))
	decision := model.ModerationDecision{
		Reason:      reasons[risk],
		Suggestions: []string{},
		RiskLevel:   risk,
	}
	switch risk {
	case model.RiskHigh:
		decision.Action = model.ActionRejected
	case model.RiskMedium:
		decision.Action = model.ActionNeedsRevision
		decision.Suggestions = suggestionsFor(a)
	default:
		decision.Action = model.ActionApproved
	}
	return decision
}

func suggestionsFor(a model.ContentAnalysis) []string {
	out := []string{}
	if a.HateSpeech {
		out = append(out, SuggestionHateSpeech)
	}
	if a.SelfHarm {
		out = append(out, SuggestionSelfHarm)
	}
	if a.Inappropriate {
		out = append(out, SuggestionInappropriate)
	}
	if a.Spam {
		out = append(out, SuggestionSpam)
	}
	if a.Sentiment == model.SentimentNegative {
		out = append(out, SuggestionNegativeSentiment)
	}
	return out
}

func isSpam(lower string) bool {
	if containsAny(lower, SpamPhrases...) {
		return true
	}
	tokens := strings.Fields(lower)
	if len(tokens) == 0 {
		return false
	}
	distinct := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		distinct[tok] = struct{}{}
	}
	return float64(len(distinct))/float64(len(tokens)) < SpamUniqueRatio
}

// sentimentOf counts how many list words appear at least once, not how often.
func sentimentOf(lower string) model.Sentiment {
	pos := countPresent(lower, PositiveWords)
	neg := countPresent(lower, NegativeWords)
	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func countPresent(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// containsAny checks if the text contains any of the given keywords.
func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
