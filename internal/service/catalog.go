package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// Tag colors are hex codes in either the 6-digit or shorthand 3-digit form,
// e.g. "#49B64E" or "#f80". Slugs are the URL-safe charset tags are linked
// by in recipe filters.
var (
	tagColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	tagSlugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// CatalogService serves the reference data recipes are built from: the fixed
// tag vocabulary and the ingredient dictionary. Both are admin-seeded; the
// API only reads them.
type CatalogService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	logger      *slog.Logger
}

func NewCatalogService(
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		tags:        tags,
		ingredients: ingredients,
		logger:      logger,
	}
}

// ListTags returns the whole tag vocabulary. Small and unpaginated.
func (s *CatalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		s.logger.Error("failed to list tags", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/catalog: listing tags: %w", err)
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "tag ID is required")
	}
	return s.tags.GetTagByID(ctx, id)
}

// SearchIngredients matches ingredient names by case-insensitive prefix, for
// the autocomplete box in the recipe editor.
func (s *CatalogService) SearchIngredients(ctx context.Context, namePrefix string, limit, offset int) ([]model.Ingredient, error) {
	ingredients, err := s.ingredients.SearchIngredients(ctx, strings.TrimSpace(namePrefix), repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to search ingredients", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/catalog: searching ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "ingredient ID is required")
	}
	return s.ingredients.GetIngredientByID(ctx, id)
}

// SeedTag and SeedIngredient are used at startup to load reference data from
// SEED_FILE. An already-present row (conflict) is skipped silently so seeding
// is re-runnable.
func (s *CatalogService) SeedTag(ctx context.Context, tag *model.Tag) error {
	tag.Name = strings.TrimSpace(tag.Name)
	tag.Color = strings.TrimSpace(tag.Color)
	tag.Slug = strings.TrimSpace(tag.Slug)

	if tag.Name == "" {
		return apperror.ValidationFailed("name", "tag name is required")
	}
	if !tagColorPattern.MatchString(tag.Color) {
		return apperror.ValidationFailed("color", "color must be a hex code like #49B64E")
	}
	if !tagSlugPattern.MatchString(tag.Slug) {
		return apperror.ValidationFailed("slug", "slug may only contain letters, digits, hyphens and underscores")
	}

	err := s.tags.CreateTag(ctx, tag)
	if err != nil && apperror.IsConflict(err) {
		return nil
	}
	return err
}

func (s *CatalogService) SeedIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	err := s.ingredients.CreateIngredient(ctx, ingredient)
	if err != nil && apperror.IsConflict(err) {
		return nil
	}
	return err
}
