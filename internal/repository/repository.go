// Package repository declares the storage interfaces consumed by the service
// layer. The sqlite subpackage provides the concrete implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/recipe-box/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// RecipeFilter narrows a recipe listing. Zero values mean "no filter".
// FavoritedBy and InCartOf carry the requesting user's ID; the handler leaves
// them empty for anonymous viewers, so those filters silently no-op.
type RecipeFilter struct {
	AuthorID    string
	TagSlugs    []string
	FavoritedBy string
	InCartOf    string
	ListOptions
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id, viewerID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, viewerID string, opts ListOptions) ([]model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTagByID(ctx context.Context, id string) (*model.Tag, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
}

type IngredientRepository interface {
	CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	GetIngredientByID(ctx context.Context, id string) (*model.Ingredient, error)
	// SearchIngredients matches on a case-insensitive name prefix;
	// an empty prefix lists everything.
	SearchIngredients(ctx context.Context, namePrefix string, opts ListOptions) ([]model.Ingredient, error)
}

// RecipeRepository owns the recipe aggregate: the recipe row, its tag links
// and its ingredient rows move together. Create and Update are transactional
// — on any failure nothing is committed.
type RecipeRepository interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []string, ingredients []model.IngredientAmount) error
	// UpdateRecipe replaces the scalar fields, the tag set and the full
	// ingredient set in one transaction (delete-all-then-recreate).
	UpdateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []string, ingredients []model.IngredientAmount) error
	// GetRecipeByID loads the recipe with its author, tags and ingredients.
	// viewerID controls the derived flags; empty means anonymous (flags
	// false, no membership queries issued).
	GetRecipeByID(ctx context.Context, id, viewerID string) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter, viewerID string) ([]model.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
}

// MembershipRepository manages the pure existence-marker rows: favorites and
// shopping-cart entries. Adds report a conflict on duplicates, removes report
// not-found on absence — toggling is intentionally not idempotent.
type MembershipRepository interface {
	AddFavorite(ctx context.Context, userID, recipeID string) error
	RemoveFavorite(ctx context.Context, userID, recipeID string) error
	AddToCart(ctx context.Context, userID, recipeID string) error
	RemoveFromCart(ctx context.Context, userID, recipeID string) error
	// CartTotals aggregates ingredient amounts across every recipe in the
	// user's cart, grouped by (name, measurement_unit) and ordered by the
	// grouping key. Empty cart yields an empty slice.
	CartTotals(ctx context.Context, userID string) ([]model.IngredientTotal, error)
}

type SubscriptionRepository interface {
	Subscribe(ctx context.Context, subscriberID, authorID string) error
	Unsubscribe(ctx context.Context, subscriberID, authorID string) error
	// ListSubscriptions returns the authors the user follows, newest
	// subscription first, each with a recipe count and at most
	// previewLimit preview recipes.
	ListSubscriptions(ctx context.Context, subscriberID string, opts ListOptions, previewLimit int) ([]model.SubscribedAuthor, error)
	// GetSubscribedAuthor returns a single followed author in the same
	// shape as a ListSubscriptions entry. NotFound when the subscriber
	// does not follow the author.
	GetSubscribedAuthor(ctx context.Context, subscriberID, authorID string, previewLimit int) (*model.SubscribedAuthor, error)
}
