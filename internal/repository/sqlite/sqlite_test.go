package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/sakif/recipe-box/internal/model"
)

// Each test gets its own in-memory database: fast, isolated and destroyed
// when the connection closes. newTestDB runs the full migration so the
// constraints under test are the real ones.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "$2a$04$notarealhash",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return user
}

func createTestTag(t *testing.T, db *DB, name, color, slug string) *model.Tag {
	t.Helper()
	tag := &model.Tag{Name: name, Color: color, Slug: slug}
	if err := db.CreateTag(context.Background(), tag); err != nil {
		t.Fatalf("failed to create test tag %s: %v", name, err)
	}
	return tag
}

func createTestIngredient(t *testing.T, db *DB, name, unit string) *model.Ingredient {
	t.Helper()
	ing := &model.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.CreateIngredient(context.Background(), ing); err != nil {
		t.Fatalf("failed to create test ingredient %s: %v", name, err)
	}
	return ing
}

// createTestRecipe persists a minimal valid recipe for the author with the
// given (ingredient, amount) pairs and no tags.
func createTestRecipe(t *testing.T, db *DB, author *model.User, name string, ingredients []model.IngredientAmount) *model.Recipe {
	t.Helper()
	recipe := &model.Recipe{
		Author:      author,
		Name:        name,
		Text:        "Stir and serve.",
		CookingTime: 10,
	}
	if err := db.CreateRecipe(context.Background(), recipe, nil, ingredients); err != nil {
		t.Fatalf("failed to create test recipe %s: %v", name, err)
	}
	return recipe
}

// countRows is a white-box helper for asserting table state directly.
func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return n
}
