package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
)

type membershipKey struct {
	userID   string
	recipeID string
}

// mockMembershipRepo mirrors the sqlite semantics: duplicate add is a
// conflict, removing an absent row is not-found.
type mockMembershipRepo struct {
	favorites map[membershipKey]bool
	cart      map[membershipKey]bool
	totals    []model.IngredientTotal
}

func newMockMembershipRepo() *mockMembershipRepo {
	return &mockMembershipRepo{
		favorites: make(map[membershipKey]bool),
		cart:      make(map[membershipKey]bool),
	}
}

func (m *mockMembershipRepo) add(set map[membershipKey]bool, userID, recipeID string) error {
	k := membershipKey{userID, recipeID}
	if set[k] {
		return apperror.Conflict("recipe is already in the list")
	}
	set[k] = true
	return nil
}

func (m *mockMembershipRepo) remove(set map[membershipKey]bool, userID, recipeID string) error {
	k := membershipKey{userID, recipeID}
	if !set[k] {
		return apperror.NotFound("recipe", recipeID)
	}
	delete(set, k)
	return nil
}

func (m *mockMembershipRepo) AddFavorite(_ context.Context, userID, recipeID string) error {
	return m.add(m.favorites, userID, recipeID)
}

func (m *mockMembershipRepo) RemoveFavorite(_ context.Context, userID, recipeID string) error {
	return m.remove(m.favorites, userID, recipeID)
}

func (m *mockMembershipRepo) AddToCart(_ context.Context, userID, recipeID string) error {
	return m.add(m.cart, userID, recipeID)
}

func (m *mockMembershipRepo) RemoveFromCart(_ context.Context, userID, recipeID string) error {
	return m.remove(m.cart, userID, recipeID)
}

func (m *mockMembershipRepo) CartTotals(_ context.Context, _ string) ([]model.IngredientTotal, error) {
	return m.totals, nil
}

func newTestCartService(t *testing.T) (*CartService, *mockMembershipRepo, *mockRecipeRepo) {
	t.Helper()
	memberships := newMockMembershipRepo()
	recipes := newMockRecipeRepo()
	return NewCartService(memberships, recipes, testLogger()), memberships, recipes
}

func seedRecipe(t *testing.T, recipes *mockRecipeRepo, authorID string) *model.Recipe {
	t.Helper()
	recipe := &model.Recipe{
		Author:      &model.User{ID: authorID},
		Name:        "pelmeni",
		Image:       "/media/recipes/pelmeni.jpg",
		CookingTime: 40,
	}
	if err := recipes.CreateRecipe(context.Background(), recipe, []string{"tag-dinner"}, nil); err != nil {
		t.Fatalf("seeding recipe: %v", err)
	}
	return recipe
}

func TestAddFavorite_ReturnsPreview(t *testing.T) {
	svc, _, recipes := newTestCartService(t)
	recipe := seedRecipe(t, recipes, "author-a")

	preview, err := svc.AddFavorite(context.Background(), "user-b", recipe.ID)
	if err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if preview.ID != recipe.ID || preview.Name != "pelmeni" {
		t.Errorf("preview = %+v, want the favorited recipe", preview)
	}
}

func TestAddFavorite_Twice(t *testing.T) {
	svc, _, recipes := newTestCartService(t)
	recipe := seedRecipe(t, recipes, "author-a")

	if _, err := svc.AddFavorite(context.Background(), "user-b", recipe.ID); err != nil {
		t.Fatalf("first AddFavorite() error = %v", err)
	}
	_, err := svc.AddFavorite(context.Background(), "user-b", recipe.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second AddFavorite() error = %v, want ErrConflict", err)
	}
}

func TestAddFavorite_UnknownRecipe(t *testing.T) {
	svc, _, _ := newTestCartService(t)

	_, err := svc.AddFavorite(context.Background(), "user-b", "rcp-missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AddFavorite() error = %v, want ErrNotFound", err)
	}
}

func TestRemoveFavorite_NeverFavorited(t *testing.T) {
	svc, _, recipes := newTestCartService(t)
	recipe := seedRecipe(t, recipes, "author-a")

	err := svc.RemoveFavorite(context.Background(), "user-b", recipe.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RemoveFavorite() error = %v, want ErrNotFound", err)
	}
}

func TestCartToggle(t *testing.T) {
	svc, memberships, recipes := newTestCartService(t)
	recipe := seedRecipe(t, recipes, "author-a")

	if _, err := svc.AddToCart(context.Background(), "user-b", recipe.ID); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if !memberships.cart[membershipKey{"user-b", recipe.ID}] {
		t.Error("expected cart row after AddToCart")
	}

	if err := svc.RemoveFromCart(context.Background(), "user-b", recipe.ID); err != nil {
		t.Fatalf("RemoveFromCart() error = %v", err)
	}
	if err := svc.RemoveFromCart(context.Background(), "user-b", recipe.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second RemoveFromCart() error = %v, want ErrNotFound", err)
	}
}

func TestShoppingList_PassesThroughTotals(t *testing.T) {
	svc, memberships, _ := newTestCartService(t)
	memberships.totals = []model.IngredientTotal{
		{Name: "flour", MeasurementUnit: "g", Total: 300},
		{Name: "salt", MeasurementUnit: "g", Total: 5},
	}

	totals, err := svc.ShoppingList(context.Background(), "user-b")
	if err != nil {
		t.Fatalf("ShoppingList() error = %v", err)
	}
	if len(totals) != 2 || totals[0].Total != 300 {
		t.Errorf("totals = %+v, want the aggregated rows", totals)
	}
}
