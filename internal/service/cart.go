package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// CartService covers the two recipe collections a user keeps: favorites and
// the shopping cart, plus the aggregated shopping list derived from the cart.
type CartService struct {
	memberships repository.MembershipRepository
	recipes     repository.RecipeRepository
	logger      *slog.Logger
}

func NewCartService(
	memberships repository.MembershipRepository,
	recipes repository.RecipeRepository,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		memberships: memberships,
		recipes:     recipes,
		logger:      logger,
	}
}

// favoriteOrCartAdd is the shared add path: confirm the recipe exists (404
// beats the FK error's generic message), insert the marker row, then return
// the preview the client renders into its lists.
func (s *CartService) add(ctx context.Context, userID, recipeID string, insert func(context.Context, string, string) error) (*model.RecipePreview, error) {
	if recipeID == "" {
		return nil, apperror.ValidationFailed("id", "recipe ID is required")
	}

	recipe, err := s.recipes.GetRecipeByID(ctx, recipeID, "")
	if err != nil {
		return nil, err
	}

	if err := insert(ctx, userID, recipeID); err != nil {
		return nil, err
	}

	return &model.RecipePreview{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}, nil
}

// AddFavorite marks a recipe as favorited. Already-favorited is a conflict,
// not a no-op.
func (s *CartService) AddFavorite(ctx context.Context, userID, recipeID string) (*model.RecipePreview, error) {
	preview, err := s.add(ctx, userID, recipeID, s.memberships.AddFavorite)
	if err != nil {
		return nil, err
	}
	s.logger.Info("recipe favorited",
		slog.String("userID", userID),
		slog.String("recipeID", recipeID),
	)
	return preview, nil
}

// RemoveFavorite unmarks a favorite; absence is NotFound.
func (s *CartService) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	if recipeID == "" {
		return apperror.ValidationFailed("id", "recipe ID is required")
	}
	return s.memberships.RemoveFavorite(ctx, userID, recipeID)
}

// AddToCart puts a recipe in the shopping cart.
func (s *CartService) AddToCart(ctx context.Context, userID, recipeID string) (*model.RecipePreview, error) {
	preview, err := s.add(ctx, userID, recipeID, s.memberships.AddToCart)
	if err != nil {
		return nil, err
	}
	s.logger.Info("recipe added to cart",
		slog.String("userID", userID),
		slog.String("recipeID", recipeID),
	)
	return preview, nil
}

// RemoveFromCart takes a recipe out of the cart; absence is NotFound.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	if recipeID == "" {
		return apperror.ValidationFailed("id", "recipe ID is required")
	}
	return s.memberships.RemoveFromCart(ctx, userID, recipeID)
}

// ShoppingList aggregates the cart into one amount per (ingredient name,
// unit). The same ingredient across several recipes comes back as a single
// summed line. Empty cart returns an empty list, not an error.
func (s *CartService) ShoppingList(ctx context.Context, userID string) ([]model.IngredientTotal, error) {
	totals, err := s.memberships.CartTotals(ctx, userID)
	if err != nil {
		s.logger.Error("failed to aggregate shopping list",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/cart: aggregating shopping list: %w", err)
	}
	return totals, nil
}
