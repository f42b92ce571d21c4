package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

const (
	MaxRecipeNameLength = 200
	MaxRecipeTextLength = 10000
	MinCookingTime      = 1
	MaxCookingTime      = 32000
	MinIngredientAmount = 1
)

// ImageStore persists an uploaded image and returns the public URL path it
// will be served under. Remove deletes the file behind a previously returned
// path. The filesystem implementation lives in internal/imagestore; tests
// inject a stub.
type ImageStore interface {
	Save(dataURI string) (string, error)
	Remove(urlPath string) error
}

// RecipeInput is the write payload for creating or fully replacing a recipe.
// Image may be empty on update, meaning "keep the current image".
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	TagIDs      []string
	Ingredients []model.IngredientAmount
}

// RecipeService enforces the recipe publishing rules: field validation,
// ingredient-set integrity and author-only mutation.
type RecipeService struct {
	recipes repository.RecipeRepository
	images  ImageStore
	logger  *slog.Logger
}

func NewRecipeService(recipes repository.RecipeRepository, images ImageStore, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		recipes: recipes,
		images:  images,
		logger:  logger,
	}
}

// validateInput checks everything that does not need the database. Ingredient
// and tag existence is left to the repository's foreign keys.
func (s *RecipeService) validateInput(in *RecipeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)

	if in.Name == "" {
		return apperror.ValidationFailed("name", "recipe name is required")
	}
	if len(in.Name) > MaxRecipeNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("recipe name must be %d characters or less", MaxRecipeNameLength))
	}
	if in.Text == "" {
		return apperror.ValidationFailed("text", "recipe text is required")
	}
	if len(in.Text) > MaxRecipeTextLength {
		return apperror.ValidationFailed("text",
			fmt.Sprintf("recipe text must be %d characters or less", MaxRecipeTextLength))
	}
	if in.CookingTime < MinCookingTime {
		return apperror.ValidationFailed("cooking_time",
			fmt.Sprintf("cooking time must be at least %d minute", MinCookingTime))
	}
	if in.CookingTime > MaxCookingTime {
		return apperror.ValidationFailed("cooking_time",
			fmt.Sprintf("cooking time must be %d minutes or less", MaxCookingTime))
	}
	if len(in.TagIDs) == 0 {
		return apperror.ValidationFailed("tags", "at least one tag is required")
	}
	if len(in.Ingredients) == 0 {
		return apperror.ValidationFailed("ingredients", "at least one ingredient is required")
	}

	// Duplicates are caught here before the transaction starts; the unique
	// constraint on (recipe_id, ingredient_id) backs this up under races.
	seen := make(map[string]bool, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		if ing.IngredientID == "" {
			return apperror.ValidationFailed("ingredients", "ingredient id is required")
		}
		if seen[ing.IngredientID] {
			return apperror.ValidationFailed("ingredients",
				fmt.Sprintf("ingredient %s appears more than once", ing.IngredientID))
		}
		seen[ing.IngredientID] = true
		if ing.Amount < MinIngredientAmount {
			return apperror.ValidationFailed("ingredients",
				fmt.Sprintf("ingredient amount must be at least %d", MinIngredientAmount))
		}
	}

	seenTags := make(map[string]bool, len(in.TagIDs))
	for _, tagID := range in.TagIDs {
		if seenTags[tagID] {
			return apperror.ValidationFailed("tags",
				fmt.Sprintf("tag %s appears more than once", tagID))
		}
		seenTags[tagID] = true
	}

	return nil
}

// Create publishes a new recipe for authorID. The image is decoded and
// stored before the database transaction; if the insert fails the file is
// removed again so the media directory only holds referenced images.
func (s *RecipeService) Create(ctx context.Context, authorID string, in RecipeInput) (*model.Recipe, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	if in.Image == "" {
		return nil, apperror.ValidationFailed("image", "recipe image is required")
	}

	imagePath, err := s.images.Save(in.Image)
	if err != nil {
		return nil, apperror.ValidationFailed("image", "image could not be decoded")
	}

	recipe := &model.Recipe{
		Author:      &model.User{ID: authorID},
		Name:        in.Name,
		Image:       imagePath,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}

	if err := s.recipes.CreateRecipe(ctx, recipe, in.TagIDs, in.Ingredients); err != nil {
		if removeErr := s.images.Remove(imagePath); removeErr != nil {
			s.logger.Warn("failed to remove image after aborted create",
				slog.String("image", imagePath),
				slog.String("error", removeErr.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("recipe created",
		slog.String("recipeID", recipe.ID),
		slog.String("authorID", authorID),
		slog.String("name", recipe.Name),
	)

	// Reload for the full representation: author profile, tags, ingredient
	// rows and the viewer's derived flags.
	return s.recipes.GetRecipeByID(ctx, recipe.ID, authorID)
}

// Update fully replaces the recipe's fields, tags and ingredient set.
// Only the author may update; anyone else gets ErrForbidden regardless of
// what they send.
func (s *RecipeService) Update(ctx context.Context, recipeID, callerID string, in RecipeInput) (*model.Recipe, error) {
	existing, err := s.recipes.GetRecipeByID(ctx, recipeID, callerID)
	if err != nil {
		return nil, err
	}
	if existing.Author == nil || existing.Author.ID != callerID {
		return nil, apperror.Forbidden("only the author can edit this recipe")
	}

	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	imagePath := existing.Image
	if in.Image != "" {
		imagePath, err = s.images.Save(in.Image)
		if err != nil {
			return nil, apperror.ValidationFailed("image", "image could not be decoded")
		}
	}

	recipe := &model.Recipe{
		ID:          recipeID,
		Author:      &model.User{ID: callerID},
		Name:        in.Name,
		Image:       imagePath,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}

	if err := s.recipes.UpdateRecipe(ctx, recipe, in.TagIDs, in.Ingredients); err != nil {
		return nil, err
	}

	// The replaced image is no longer referenced by any row; a failed
	// removal only costs disk space, so it is logged and not surfaced.
	if imagePath != existing.Image {
		if err := s.images.Remove(existing.Image); err != nil {
			s.logger.Warn("failed to remove replaced recipe image",
				slog.String("recipeID", recipeID),
				slog.String("image", existing.Image),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("recipe updated",
		slog.String("recipeID", recipeID),
		slog.String("authorID", callerID),
	)

	return s.recipes.GetRecipeByID(ctx, recipeID, callerID)
}

// Delete removes a recipe. Author-only, like Update.
func (s *RecipeService) Delete(ctx context.Context, recipeID, callerID string) error {
	existing, err := s.recipes.GetRecipeByID(ctx, recipeID, callerID)
	if err != nil {
		return err
	}
	if existing.Author == nil || existing.Author.ID != callerID {
		return apperror.Forbidden("only the author can delete this recipe")
	}

	if err := s.recipes.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}

	if err := s.images.Remove(existing.Image); err != nil {
		s.logger.Warn("failed to remove deleted recipe image",
			slog.String("recipeID", recipeID),
			slog.String("image", existing.Image),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("recipe deleted",
		slog.String("recipeID", recipeID),
		slog.String("authorID", callerID),
	)
	return nil
}

// GetByID returns a recipe as seen by viewerID (empty for anonymous).
func (s *RecipeService) GetByID(ctx context.Context, id, viewerID string) (*model.Recipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "recipe ID is required")
	}
	return s.recipes.GetRecipeByID(ctx, id, viewerID)
}

// List returns recipes matching the filter, newest first. The favorited/cart
// filters only make sense for an authenticated viewer; the handler fills
// FavoritedBy/InCartOf with the caller's ID.
func (s *RecipeService) List(ctx context.Context, filter repository.RecipeFilter, viewerID string) ([]model.Recipe, error) {
	recipes, err := s.recipes.ListRecipes(ctx, filter, viewerID)
	if err != nil {
		s.logger.Error("failed to list recipes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/recipe: listing recipes: %w", err)
	}
	return recipes, nil
}
