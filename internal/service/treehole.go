package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/myao0007/shetalks/internal/model"
	"github.com/myao0007/shetalks/internal/moderation"
	"github.com/myao0007/shetalks/internal/repository"
)

// TreeHoleService accepts anonymous posts and publishes the approved ones.
type TreeHoleService struct {
	moderator *moderation.Moderator
	posts     repository.PostStore
	log       zerolog.Logger
}

// NewTreeHoleService constructs a TreeHoleService.
func NewTreeHoleService(moderator *moderation.Moderator, posts repository.PostStore, log zerolog.Logger) *TreeHoleService {
	return &TreeHoleService{
		moderator: moderator,
		posts:     posts,
		log:       log.With().Str("component", "treehole").Logger(),
	}
}

// Classify moderates text without storing anything.
func (s *TreeHoleService) Classify(ctx context.Context, sub model.Submission) (model.ModerationDecision, error) {
	return s.moderator.Moderate(ctx, sub)
}

// Submit moderates a post and stores it with its decision. Posts that are
// not approved are kept for review but never listed.
func (s *TreeHoleService) Submit(ctx context.Context, sub model.Submission) (*model.SubmitResult, error) {
	decision, err := s.moderator.Moderate(ctx, sub)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.CreatePost(ctx, model.Post{
		SubmitterID: sub.SubmitterID,
		Content:     moderation.Normalize(sub.Text),
		Action:      decision.Action,
		RiskLevel:   decision.RiskLevel,
		Reason:      decision.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("post_id", post.ID).Str("action", string(post.Action)).Msg("post stored")
	return &model.SubmitResult{Post: *post, Decision: decision}, nil
}

// List returns approved posts, newest first.
func (s *TreeHoleService) List(ctx context.Context, limit int) ([]model.Post, error) {
	return s.posts.ListPosts(ctx, model.ActionApproved, limit)
}
