package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	dup := &model.User{
		Email:        "alice@example.com",
		Username:     "alice2",
		PasswordHash: "x",
	}
	err := db.CreateUser(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() with duplicate email error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	dup := &model.User{
		Email:        "other@example.com",
		Username:     "alice",
		PasswordHash: "x",
	}
	err := db.CreateUser(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() with duplicate username error = %v, want ErrConflict", err)
	}
}

func TestGetUserByID_SubscribedFlag(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "chef")
	follower := createTestUser(t, db, "fan")

	ctx := context.Background()
	if err := db.Subscribe(ctx, follower.ID, author.ID); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, author.ID, follower.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if !got.IsSubscribed {
		t.Error("IsSubscribed = false for a followed author")
	}

	// Anonymous viewer always sees false.
	anon, err := db.GetUserByID(ctx, author.ID, "")
	if err != nil {
		t.Fatalf("GetUserByID() anonymous error = %v", err)
	}
	if anon.IsSubscribed {
		t.Error("IsSubscribed = true for anonymous viewer, want false")
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	ctx := context.Background()
	if err := db.UpdatePassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := db.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "new-hash")
	}

	if err := db.UpdatePassword(ctx, "missing", "h"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdatePassword() on missing user error = %v, want ErrNotFound", err)
	}
}

func TestSearchIngredients_Prefix(t *testing.T) {
	db := newTestDB(t)
	createTestIngredient(t, db, "salt", "g")
	createTestIngredient(t, db, "salmon", "g")
	createTestIngredient(t, db, "pepper", "g")

	got, err := db.SearchIngredients(context.Background(), "sal", repository.ListOptions{})
	if err != nil {
		t.Fatalf("SearchIngredients() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("prefix 'sal' matched %d ingredients, want 2", len(got))
	}
	for _, ing := range got {
		if ing.Name != "salt" && ing.Name != "salmon" {
			t.Errorf("unexpected match %q", ing.Name)
		}
	}
}

func TestCreateIngredient_PairUniqueness(t *testing.T) {
	db := newTestDB(t)
	createTestIngredient(t, db, "milk", "ml")

	// Same name with a different unit is a distinct catalog entry.
	other := &model.Ingredient{Name: "milk", MeasurementUnit: "g"}
	if err := db.CreateIngredient(context.Background(), other); err != nil {
		t.Fatalf("CreateIngredient() same name different unit error = %v", err)
	}

	dup := &model.Ingredient{Name: "milk", MeasurementUnit: "ml"}
	err := db.CreateIngredient(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateIngredient() duplicate pair error = %v, want ErrConflict", err)
	}
}

func TestCreateTag_UniqueColor(t *testing.T) {
	db := newTestDB(t)
	createTestTag(t, db, "breakfast", "#49B64E", "breakfast")

	dup := &model.Tag{Name: "dinner", Color: "#49B64E", Slug: "dinner"}
	err := db.CreateTag(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateTag() duplicate color error = %v, want ErrConflict", err)
	}
}
