package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

type mockTagRepo struct {
	tags   map[string]*model.Tag
	nextID int
}

func newMockTagRepo() *mockTagRepo {
	return &mockTagRepo{tags: make(map[string]*model.Tag)}
}

func (m *mockTagRepo) CreateTag(_ context.Context, tag *model.Tag) error {
	for _, t := range m.tags {
		if t.Slug == tag.Slug || t.Name == tag.Name {
			return apperror.Conflict("a tag with this name or slug already exists")
		}
	}
	m.nextID++
	tag.ID = fmt.Sprintf("tag-%d", m.nextID)
	stored := *tag
	m.tags[tag.ID] = &stored
	return nil
}

func (m *mockTagRepo) GetTagByID(_ context.Context, id string) (*model.Tag, error) {
	tag, ok := m.tags[id]
	if !ok {
		return nil, apperror.NotFound("tag", id)
	}
	result := *tag
	return &result, nil
}

func (m *mockTagRepo) ListTags(_ context.Context) ([]model.Tag, error) {
	result := make([]model.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		result = append(result, *t)
	}
	return result, nil
}

type mockIngredientRepo struct {
	ingredients map[string]*model.Ingredient
	nextID      int
}

func newMockIngredientRepo() *mockIngredientRepo {
	return &mockIngredientRepo{ingredients: make(map[string]*model.Ingredient)}
}

func (m *mockIngredientRepo) CreateIngredient(_ context.Context, ingredient *model.Ingredient) error {
	for _, i := range m.ingredients {
		if i.Name == ingredient.Name && i.MeasurementUnit == ingredient.MeasurementUnit {
			return apperror.Conflict("this ingredient already exists")
		}
	}
	m.nextID++
	ingredient.ID = fmt.Sprintf("ing-%d", m.nextID)
	stored := *ingredient
	m.ingredients[ingredient.ID] = &stored
	return nil
}

func (m *mockIngredientRepo) GetIngredientByID(_ context.Context, id string) (*model.Ingredient, error) {
	ingredient, ok := m.ingredients[id]
	if !ok {
		return nil, apperror.NotFound("ingredient", id)
	}
	result := *ingredient
	return &result, nil
}

func (m *mockIngredientRepo) SearchIngredients(_ context.Context, _ string, _ repository.ListOptions) ([]model.Ingredient, error) {
	result := make([]model.Ingredient, 0, len(m.ingredients))
	for _, i := range m.ingredients {
		result = append(result, *i)
	}
	return result, nil
}

func newTestCatalogService(t *testing.T) (*CatalogService, *mockTagRepo) {
	t.Helper()
	tags := newMockTagRepo()
	return NewCatalogService(tags, newMockIngredientRepo(), testLogger()), tags
}

func validTag() *model.Tag {
	return &model.Tag{Name: "dinner", Color: "#49B64E", Slug: "dinner"}
}

func TestSeedTag_Success(t *testing.T) {
	svc, tags := newTestCatalogService(t)

	tag := validTag()
	if err := svc.SeedTag(context.Background(), tag); err != nil {
		t.Fatalf("SeedTag() error = %v", err)
	}
	if tag.ID == "" {
		t.Error("expected seeded tag to have an ID")
	}
	if len(tags.tags) != 1 {
		t.Errorf("stored %d tags, want 1", len(tags.tags))
	}
}

func TestSeedTag_ShortColorForm(t *testing.T) {
	svc, _ := newTestCatalogService(t)

	tag := validTag()
	tag.Color = "#f80"
	if err := svc.SeedTag(context.Background(), tag); err != nil {
		t.Fatalf("SeedTag() with 3-digit color error = %v", err)
	}
}

func TestSeedTag_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Tag)
		field  string
	}{
		{"empty name", func(tag *model.Tag) { tag.Name = "  " }, "name"},
		{"color not hex", func(tag *model.Tag) { tag.Color = "not-a-hex-color" }, "color"},
		{"color missing hash", func(tag *model.Tag) { tag.Color = "49B64E" }, "color"},
		{"color wrong length", func(tag *model.Tag) { tag.Color = "#49B6" }, "color"},
		{"color bad digit", func(tag *model.Tag) { tag.Color = "#49B64G" }, "color"},
		{"empty slug", func(tag *model.Tag) { tag.Slug = "" }, "slug"},
		{"slug with spaces", func(tag *model.Tag) { tag.Slug = "week day" }, "slug"},
		{"slug with unicode", func(tag *model.Tag) { tag.Slug = "завтрак" }, "slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tags := newTestCatalogService(t)

			tag := validTag()
			tt.mutate(tag)
			err := svc.SeedTag(context.Background(), tag)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("SeedTag() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("SeedTag() reported field %q, want %q", appErr.Field, tt.field)
			}
			if len(tags.tags) != 0 {
				t.Errorf("invalid tag was persisted: %+v", tags.tags)
			}
		})
	}
}

func TestSeedTag_Rerun(t *testing.T) {
	svc, tags := newTestCatalogService(t)

	if err := svc.SeedTag(context.Background(), validTag()); err != nil {
		t.Fatalf("first SeedTag() error = %v", err)
	}
	// Seeding the same tag again is a silent skip, not an error.
	if err := svc.SeedTag(context.Background(), validTag()); err != nil {
		t.Fatalf("second SeedTag() error = %v", err)
	}
	if len(tags.tags) != 1 {
		t.Errorf("stored %d tags after re-run, want 1", len(tags.tags))
	}
}

func TestSeedIngredient_Rerun(t *testing.T) {
	svc, _ := newTestCatalogService(t)

	ingredient := &model.Ingredient{Name: "flour", MeasurementUnit: "g"}
	if err := svc.SeedIngredient(context.Background(), ingredient); err != nil {
		t.Fatalf("first SeedIngredient() error = %v", err)
	}
	if err := svc.SeedIngredient(context.Background(), &model.Ingredient{Name: "flour", MeasurementUnit: "g"}); err != nil {
		t.Fatalf("second SeedIngredient() error = %v", err)
	}
}
