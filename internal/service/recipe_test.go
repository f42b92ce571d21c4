package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// Hand-written mocks keep these tests in plain function calls; they
// implement the same repository interfaces as the sqlite package, so the
// services under test cannot tell the difference.

type storedRecipe struct {
	recipe      model.Recipe
	tagIDs      []string
	ingredients []model.IngredientAmount
}

type mockRecipeRepo struct {
	recipes map[string]*storedRecipe
	nextID  int
}

func newMockRecipeRepo() *mockRecipeRepo {
	return &mockRecipeRepo{recipes: make(map[string]*storedRecipe)}
}

func (m *mockRecipeRepo) CreateRecipe(_ context.Context, recipe *model.Recipe, tagIDs []string, ingredients []model.IngredientAmount) error {
	m.nextID++
	recipe.ID = fmt.Sprintf("rcp-%d", m.nextID)
	m.recipes[recipe.ID] = &storedRecipe{
		recipe:      *recipe,
		tagIDs:      append([]string(nil), tagIDs...),
		ingredients: append([]model.IngredientAmount(nil), ingredients...),
	}
	return nil
}

func (m *mockRecipeRepo) UpdateRecipe(_ context.Context, recipe *model.Recipe, tagIDs []string, ingredients []model.IngredientAmount) error {
	stored, ok := m.recipes[recipe.ID]
	if !ok {
		return apperror.NotFound("recipe", recipe.ID)
	}
	author := stored.recipe.Author
	stored.recipe = *recipe
	stored.recipe.Author = author
	stored.tagIDs = append([]string(nil), tagIDs...)
	stored.ingredients = append([]model.IngredientAmount(nil), ingredients...)
	return nil
}

func (m *mockRecipeRepo) GetRecipeByID(_ context.Context, id, _ string) (*model.Recipe, error) {
	stored, ok := m.recipes[id]
	if !ok {
		return nil, apperror.NotFound("recipe", id)
	}
	result := stored.recipe
	return &result, nil
}

func (m *mockRecipeRepo) ListRecipes(_ context.Context, _ repository.RecipeFilter, _ string) ([]model.Recipe, error) {
	result := make([]model.Recipe, 0, len(m.recipes))
	for _, s := range m.recipes {
		result = append(result, s.recipe)
	}
	return result, nil
}

func (m *mockRecipeRepo) DeleteRecipe(_ context.Context, id string) error {
	if _, ok := m.recipes[id]; !ok {
		return apperror.NotFound("recipe", id)
	}
	delete(m.recipes, id)
	return nil
}

// stubImageStore pretends every data URI decodes to a stored file. Removed
// paths are recorded so tests can check cleanup of superseded images.
type stubImageStore struct {
	saved   int
	fail    bool
	removed []string
}

func (s *stubImageStore) Save(dataURI string) (string, error) {
	if s.fail || dataURI == "" {
		return "", errors.New("bad image")
	}
	s.saved++
	return fmt.Sprintf("/media/recipes/img-%d.jpg", s.saved), nil
}

func (s *stubImageStore) Remove(urlPath string) error {
	s.removed = append(s.removed, urlPath)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRecipeService(t *testing.T) (*RecipeService, *mockRecipeRepo, *stubImageStore) {
	t.Helper()
	repo := newMockRecipeRepo()
	images := &stubImageStore{}
	return NewRecipeService(repo, images, testLogger()), repo, images
}

func validInput() RecipeInput {
	return RecipeInput{
		Name:        "borscht",
		Text:        "simmer everything for an hour",
		Image:       "data:image/png;base64,abc",
		CookingTime: 60,
		TagIDs:      []string{"tag-dinner"},
		Ingredients: []model.IngredientAmount{
			{IngredientID: "ing-beet", Amount: 3},
			{IngredientID: "ing-cabbage", Amount: 1},
		},
	}
}

func TestRecipeCreate_Success(t *testing.T) {
	svc, repo, images := newTestRecipeService(t)

	recipe, err := svc.Create(context.Background(), "user-a", validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if recipe.ID == "" {
		t.Error("expected recipe to have an ID")
	}
	if images.saved != 1 {
		t.Errorf("image store saved %d files, want 1", images.saved)
	}
	if got := len(repo.recipes[recipe.ID].ingredients); got != 2 {
		t.Errorf("stored %d ingredient rows, want 2", got)
	}
}

func TestRecipeCreate_Validation(t *testing.T) {
	svc, _, _ := newTestRecipeService(t)

	cases := []struct {
		name   string
		mutate func(*RecipeInput)
	}{
		{"empty name", func(in *RecipeInput) { in.Name = "   " }},
		{"name too long", func(in *RecipeInput) { in.Name = strings.Repeat("x", MaxRecipeNameLength+1) }},
		{"empty text", func(in *RecipeInput) { in.Text = "" }},
		{"zero cooking time", func(in *RecipeInput) { in.CookingTime = 0 }},
		{"negative cooking time", func(in *RecipeInput) { in.CookingTime = -10 }},
		{"no tags", func(in *RecipeInput) { in.TagIDs = nil }},
		{"no ingredients", func(in *RecipeInput) { in.Ingredients = nil }},
		{"zero amount", func(in *RecipeInput) { in.Ingredients[0].Amount = 0 }},
		{"missing image", func(in *RecipeInput) { in.Image = "" }},
		{"duplicate ingredient", func(in *RecipeInput) {
			in.Ingredients = append(in.Ingredients, model.IngredientAmount{IngredientID: "ing-beet", Amount: 5})
		}},
		{"duplicate tag", func(in *RecipeInput) { in.TagIDs = []string{"tag-dinner", "tag-dinner"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), "user-a", in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRecipeCreate_CookingTimeBoundary(t *testing.T) {
	svc, _, _ := newTestRecipeService(t)

	in := validInput()
	in.CookingTime = MinCookingTime
	if _, err := svc.Create(context.Background(), "user-a", in); err != nil {
		t.Errorf("Create() with cooking_time=%d should succeed, got %v", MinCookingTime, err)
	}
}

func TestRecipeCreate_BadImage(t *testing.T) {
	svc, _, images := newTestRecipeService(t)
	images.fail = true

	_, err := svc.Create(context.Background(), "user-a", validInput())
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation for undecodable image", err)
	}
}

func TestRecipeUpdate_ReplacesIngredientSet(t *testing.T) {
	svc, repo, _ := newTestRecipeService(t)

	created, err := svc.Create(context.Background(), "user-a", validInput())
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	in := validInput()
	in.Ingredients = []model.IngredientAmount{{IngredientID: "ing-potato", Amount: 4}}
	in.Image = "" // keep current image

	updated, err := svc.Update(context.Background(), created.ID, "user-a", in)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Image != created.Image {
		t.Errorf("Image = %q, want unchanged %q", updated.Image, created.Image)
	}

	stored := repo.recipes[created.ID]
	if len(stored.ingredients) != 1 || stored.ingredients[0].IngredientID != "ing-potato" {
		t.Errorf("stored ingredients = %+v, want single ing-potato row", stored.ingredients)
	}
}

func TestRecipeUpdate_WrongAuthor(t *testing.T) {
	svc, _, _ := newTestRecipeService(t)

	created, _ := svc.Create(context.Background(), "user-a", validInput())

	_, err := svc.Update(context.Background(), created.ID, "user-b", validInput())
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() error = %v, want ErrForbidden for non-author", err)
	}
}

func TestRecipeUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestRecipeService(t)

	_, err := svc.Update(context.Background(), "rcp-missing", "user-a", validInput())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestRecipeDelete_AuthorOnly(t *testing.T) {
	svc, _, _ := newTestRecipeService(t)

	created, _ := svc.Create(context.Background(), "user-a", validInput())

	if err := svc.Delete(context.Background(), created.ID, "user-b"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() by non-author error = %v, want ErrForbidden", err)
	}

	if err := svc.Delete(context.Background(), created.ID, "user-a"); err != nil {
		t.Fatalf("Delete() by author error = %v", err)
	}

	if _, err := svc.GetByID(context.Background(), created.ID, ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
}

func TestRecipeDelete_RemovesImage(t *testing.T) {
	svc, _, images := newTestRecipeService(t)

	created, err := svc.Create(context.Background(), "user-a", validInput())
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID, "user-a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(images.removed) != 1 || images.removed[0] != created.Image {
		t.Errorf("removed images = %v, want [%s]", images.removed, created.Image)
	}
}

func TestRecipeUpdate_RemovesReplacedImage(t *testing.T) {
	svc, _, images := newTestRecipeService(t)

	created, err := svc.Create(context.Background(), "user-a", validInput())
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, "user-a", validInput())
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Image == created.Image {
		t.Fatalf("Update() kept image %q, want a new file", updated.Image)
	}
	if len(images.removed) != 1 || images.removed[0] != created.Image {
		t.Errorf("removed images = %v, want [%s]", images.removed, created.Image)
	}
}

func TestRecipeUpdate_KeepsImageWithoutRemoval(t *testing.T) {
	svc, _, images := newTestRecipeService(t)

	created, err := svc.Create(context.Background(), "user-a", validInput())
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	in := validInput()
	in.Image = ""
	if _, err := svc.Update(context.Background(), created.ID, "user-a", in); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(images.removed) != 0 {
		t.Errorf("removed images = %v, want none when the image is kept", images.removed)
	}
}
