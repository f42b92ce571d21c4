package model

import "time"

// Recipe is a published dish record. Tags and Ingredients are loaded with the
// recipe; the ingredient set is owned by the recipe and replaced as a whole on
// every update, never patched row by row.
//
// IsFavorited and IsInShoppingCart are derived per viewer at read time and
// never stored. For an anonymous viewer both are false and no membership
// query is issued.
type Recipe struct {
	ID               string             `json:"id"                  db:"id"`
	Author           *User              `json:"author"              db:"-"`
	Name             string             `json:"name"                db:"name"`
	Image            string             `json:"image"               db:"image"` // media path, e.g. "recipes/cv37rs3p.jpg"
	Text             string             `json:"text"                db:"text"`
	CookingTime      int                `json:"cooking_time"        db:"cooking_time"` // minutes, >= 1
	Tags             []Tag              `json:"tags"                db:"-"`
	Ingredients      []RecipeIngredient `json:"ingredients"         db:"-"`
	IsFavorited      bool               `json:"is_favorited"        db:"-"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart" db:"-"`
	CreatedAt        time.Time          `json:"created_at"          db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"          db:"updated_at"`
}

// RecipeIngredient is a quantified association between a recipe and a catalog
// ingredient, flattened for serialisation: the ID is the ingredient's ID.
type RecipeIngredient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"` // >= 1
}

// IngredientAmount is the write-side counterpart of RecipeIngredient: one
// (ingredient id, amount) pair from a create/update request.
type IngredientAmount struct {
	IngredientID string `json:"id"`
	Amount       int    `json:"amount"`
}

// RecipePreview is the trimmed representation used in subscription listings.
type RecipePreview struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}
