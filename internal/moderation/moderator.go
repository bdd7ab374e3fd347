package moderation

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
)

// Analyzer produces a ContentAnalysis for normalized text.
type Analyzer interface {
	Analyze(ctx context.Context, normalized string) (model.ContentAnalysis, error)
}

// KeywordAnalyzer is the deterministic Analyzer backed by the policy tables.
// It never fails.
type KeywordAnalyzer struct{}

// Analyze implements Analyzer.
func (KeywordAnalyzer) Analyze(_ context.Context, normalized string) (model.ContentAnalysis, error) {
	return Analyze(normalized), nil
}

// Moderator classifies submissions, optionally consulting a primary Analyzer
// (such as a hosted model) on top of the keyword analysis. Any primary
// failure falls back to the keyword analysis and is only logged.
type Moderator struct {
	primary Analyzer
	log     zerolog.Logger
}

// NewModerator constructs a Moderator. primary may be nil.
func NewModerator(primary Analyzer, log zerolog.Logger) *Moderator {
	return &Moderator{
		primary: primary,
		log:     log.With().Str("component", "moderation").Logger(),
	}
}

// Moderate classifies a submission.
func (m *Moderator) Moderate(ctx context.Context, sub model.Submission) (model.ModerationDecision, error) {
	normalized := Normalize(sub.Text)
	if normalized == "" {
		return model.ModerationDecision{}, apperrors.NewInvalidArgument("text is required")
	}

	analysis, source := m.analyze(ctx, normalized)
	decision := Decide(analysis)

	m.log.Info().
		Str("submitter", sub.SubmitterID).
		Str("source", source).
		Str("policy", PolicyVersion).
		Str("risk", string(decision.RiskLevel)).
		Str("action", string(decision.Action)).
		Msg("content moderated")
	return decision, nil
}

// analyze never returns less than the keyword analysis finds: the primary
// can add flags but not clear them.
func (m *Moderator) analyze(ctx context.Context, normalized string) (model.ContentAnalysis, string) {
	floor := Analyze(normalized)
	if m.primary != nil {
		analysis, err := m.primary.Analyze(ctx, normalized)
		if err == nil {
			return merge(analysis, floor), "primary"
		}
		m.log.Warn().Err(err).Msg("primary analyzer failed, using keyword analysis")
	}
	return floor, "keyword"
}

// merge ORs every flag and keeps negative sentiment from either side.
func merge(primary, floor model.ContentAnalysis) model.ContentAnalysis {
	out := model.ContentAnalysis{
		HateSpeech:    primary.HateSpeech || floor.HateSpeech,
		SelfHarm:      primary.SelfHarm || floor.SelfHarm,
		Inappropriate: primary.Inappropriate || floor.Inappropriate,
		Spam:          primary.Spam || floor.Spam,
		Sentiment:     primary.Sentiment,
	}
	if floor.Sentiment == model.SentimentNegative {
		out.Sentiment = model.SentimentNegative
	}
	return out
}
