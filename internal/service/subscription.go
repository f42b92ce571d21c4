package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// DefaultRecipePreviewLimit caps how many recipe previews each author card
// carries in a subscriptions listing.
const DefaultRecipePreviewLimit = 3

// SubscriptionService manages who follows whom.
type SubscriptionService struct {
	subs   repository.SubscriptionRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subs:   subs,
		users:  users,
		logger: logger,
	}
}

// Subscribe makes subscriberID follow authorID.
//
// The self-subscription check also exists as a CHECK constraint in the
// database; checking here first gives a field-level validation error instead
// of a translated constraint failure.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, authorID string) (*model.SubscribedAuthor, error) {
	if authorID == "" {
		return nil, apperror.ValidationFailed("id", "author ID is required")
	}
	if subscriberID == authorID {
		return nil, apperror.ValidationFailed("id", "you cannot subscribe to yourself")
	}

	// Unknown author surfaces as 404 before we touch the subscriptions table.
	if _, err := s.users.GetUserByID(ctx, authorID, ""); err != nil {
		return nil, err
	}

	if err := s.subs.Subscribe(ctx, subscriberID, authorID); err != nil {
		return nil, err
	}

	s.logger.Info("subscription created",
		slog.String("subscriberID", subscriberID),
		slog.String("authorID", authorID),
	)

	return s.subs.GetSubscribedAuthor(ctx, subscriberID, authorID, DefaultRecipePreviewLimit)
}

// Unsubscribe removes the follow edge. Not being subscribed is NotFound,
// mirroring the non-idempotent add.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, authorID string) error {
	if authorID == "" {
		return apperror.ValidationFailed("id", "author ID is required")
	}

	if err := s.subs.Unsubscribe(ctx, subscriberID, authorID); err != nil {
		return err
	}

	s.logger.Info("subscription removed",
		slog.String("subscriberID", subscriberID),
		slog.String("authorID", authorID),
	)
	return nil
}

// ListSubscriptions returns the authors subscriberID follows, each with a
// recipe count and a bounded preview of their latest recipes. A negative
// recipesLimit means the caller did not ask for one and gets the default;
// an explicit zero suppresses the previews entirely.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, subscriberID string, limit, offset, recipesLimit int) ([]model.SubscribedAuthor, error) {
	if recipesLimit < 0 {
		recipesLimit = DefaultRecipePreviewLimit
	}

	authors, err := s.subs.ListSubscriptions(ctx, subscriberID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	}, recipesLimit)
	if err != nil {
		s.logger.Error("failed to list subscriptions",
			slog.String("subscriberID", subscriberID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/subscription: listing subscriptions: %w", err)
	}
	return authors, nil
}
